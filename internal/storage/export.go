package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/frames"
)

// Frame names used in exports.
const (
	FrameSynodic  = "synodic"
	FrameInertial = "inertial"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Mu         float64            `json:"mu"`
	Integrator string             `json:"integrator"`
	Frame      string             `json:"frame"`
	Duration   float64            `json:"duration"`
	Samples    int                `json:"samples"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Primary1   []frames.Vec3      `json:"primary1,omitempty"`
	Primary2   []frames.Vec3      `json:"primary2,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewExportData packs a synodic trajectory for export. With inertial set
// the samples are converted and the tracks of both primaries attached.
func NewExportData(meta RunMetadata, tr *dynamo.Trajectory, inertial bool) (*ExportData, error) {
	data := &ExportData{
		Scenario:   meta.Scenario,
		Mu:         meta.Mu,
		Integrator: meta.Integrator,
		Frame:      FrameSynodic,
		Duration:   meta.Duration,
		Metrics:    meta.Metrics,
	}

	if inertial {
		out, err := frames.SynodicToInertial(tr, meta.Mu)
		if err != nil {
			return nil, err
		}
		tr = out.Trajectory
		data.Frame = FrameInertial
		data.Primary1 = out.Primary1
		data.Primary2 = out.Primary2
	}

	data.Samples = tr.Len()
	data.Times = tr.Times()
	data.States = make([][]float64, tr.Len())
	for i, s := range tr.States() {
		data.States[i] = s
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}

func ExportCSV(path string, tr *dynamo.Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, tr)
}
