package frames_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/frames"
)

const roundTripTol = 1e-9

func syntheticTrajectory(n int) *dynamo.Trajectory {
	states := make([]dynamo.State, n)
	times := make([]float64, n)
	for i := range states {
		tm := 30.0 * float64(i) / float64(n-1)
		times[i] = tm
		states[i] = dynamo.State{
			1.1 * math.Cos(0.3*tm), 0.4 * math.Sin(0.7*tm), 0.05 * math.Sin(tm),
			-0.1 + 0.01*tm, 0.2 * math.Cos(tm), 0.01,
		}
	}
	tr, err := dynamo.NewTrajectory(states, times)
	Expect(err).NotTo(HaveOccurred())
	return tr
}

var _ = Describe("R3", func() {
	It("is orthonormal and inverted by the opposite angle", func() {
		for _, theta := range []float64{0, 0.3, math.Pi / 2, -2.1, 17.5} {
			var prod mat.Dense
			prod.Mul(frames.R3(theta), frames.R3(-theta))
			Expect(mat.EqualApprox(&prod, mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-14)).To(BeTrue())
		}
	})
})

var _ = Describe("single state transforms", func() {
	It("adds the frame velocity at t = 0", func() {
		x := dynamo.State{1.1, 0, 0, -0.1, 0.2, 0}
		in, err := frames.SynodicToInertialState(x, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(in[0]).To(BeNumerically("~", 1.1, 1e-15))
		Expect(in[1]).To(BeNumerically("~", 0, 1e-15))
		Expect(in[3]).To(BeNumerically("~", -0.1, 1e-15))
		Expect(in[4]).To(BeNumerically("~", 0.2+1.1, 1e-15))
	})

	It("rotates a point on the x axis onto the secondary's track", func() {
		mu := 0.02
		tm := 1.3
		x := dynamo.State{1 - mu, 0, 0, 0, 0, 0}
		in, err := frames.SynodicToInertialState(x, tm)
		Expect(err).NotTo(HaveOccurred())

		_, p2 := frames.PrimaryPositions(mu, tm)
		Expect(in[0]).To(BeNumerically("~", p2[0], 1e-14))
		Expect(in[1]).To(BeNumerically("~", p2[1], 1e-14))
	})

	It("round trips within tolerance", func() {
		x := dynamo.State{0.48, 0.866, 0.1, 0.01, -0.02, 0.003}
		for _, tm := range []float64{0, 0.5, -3.2, 100} {
			in, err := frames.SynodicToInertialState(x, tm)
			Expect(err).NotTo(HaveOccurred())
			back, err := frames.InertialToSynodicState(in, tm)
			Expect(err).NotTo(HaveOccurred())
			for i := range x {
				Expect(back[i]).To(BeNumerically("~", x[i], roundTripTol))
			}
		}
	})

	It("rejects states that are not 6-dimensional", func() {
		_, err := frames.SynodicToInertialState(dynamo.State{1, 2, 3}, 0)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		_, err = frames.InertialToSynodicState(dynamo.State{1, 2, 3, 4, 5, 6, 7}, 0)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})

var _ = Describe("trajectory transforms", func() {
	const mu = 0.02

	It("round trips every sample and keeps the time stamps", func() {
		tr := syntheticTrajectory(1500)

		out, err := frames.SynodicToInertial(tr, mu)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Trajectory.Len()).To(Equal(tr.Len()))
		Expect(out.Primary1).To(HaveLen(tr.Len()))
		Expect(out.Primary2).To(HaveLen(tr.Len()))

		back, err := frames.InertialToSynodic(out.Trajectory)
		Expect(err).NotTo(HaveOccurred())
		Expect(back.Times()).To(Equal(tr.Times()))

		for i := 0; i < tr.Len(); i++ {
			want, got := tr.State(i), back.State(i)
			for k := range want {
				Expect(got[k]).To(BeNumerically("~", want[k], roundTripTol))
			}
		}
	})

	It("transforms each sample exactly like the single state functions", func() {
		tr := syntheticTrajectory(700)

		out, err := frames.SynodicToInertial(tr, mu)
		Expect(err).NotTo(HaveOccurred())
		back, err := frames.InertialToSynodic(out.Trajectory)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < tr.Len(); i++ {
			inertial, err := frames.SynodicToInertialState(tr.State(i), tr.Time(i))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Trajectory.State(i)).To(Equal(inertial))

			synodic, err := frames.InertialToSynodicState(out.Trajectory.State(i), tr.Time(i))
			Expect(err).NotTo(HaveOccurred())
			Expect(back.State(i)).To(Equal(synodic))
		}
	})

	It("places the primaries on opposite sides of the barycenter", func() {
		out, err := frames.SynodicToInertial(syntheticTrajectory(50), mu)
		Expect(err).NotTo(HaveOccurred())
		for i := range out.Primary1 {
			p1, p2 := out.Primary1[i], out.Primary2[i]
			Expect(math.Hypot(p1[0], p1[1])).To(BeNumerically("~", mu, 1e-14))
			Expect(math.Hypot(p2[0], p2[1])).To(BeNumerically("~", 1-mu, 1e-14))
			Expect((1-mu)*p1[0] + mu*p2[0]).To(BeNumerically("~", 0, 1e-14))
		}
	})

	It("keeps a synodic equilibrium on a unit-rate circle", func() {
		l4 := dynamo.State{0.5 - mu, math.Sqrt(3) / 2, 0, 0, 0, 0}
		states := make([]dynamo.State, 20)
		times := make([]float64, 20)
		for i := range states {
			states[i] = l4
			times[i] = float64(i) * 0.4
		}
		tr, err := dynamo.NewTrajectory(states, times)
		Expect(err).NotTo(HaveOccurred())

		out, err := frames.SynodicToInertial(tr, mu)
		Expect(err).NotTo(HaveOccurred())

		radius := math.Hypot(l4[0], l4[1])
		for i := 0; i < out.Trajectory.Len(); i++ {
			s := out.Trajectory.State(i)
			Expect(math.Hypot(s[0], s[1])).To(BeNumerically("~", radius, 1e-12))
			Expect(math.Hypot(s[3], s[4])).To(BeNumerically("~", radius, 1e-12))
		}
	})

	It("rejects an invalid mass ratio", func() {
		_, err := frames.SynodicToInertial(syntheticTrajectory(3), 0.7)
		Expect(err).To(MatchError(dynamo.ErrInvalidMassRatio))
	})

	It("rejects malformed samples", func() {
		tr, err := dynamo.NewTrajectory([]dynamo.State{{1, 2}}, []float64{0})
		Expect(err).NotTo(HaveOccurred())
		_, err = frames.InertialToSynodic(tr)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})
