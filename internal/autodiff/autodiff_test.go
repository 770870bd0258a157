package autodiff_test

import (
	"math"
	"testing"

	"github.com/morphic-ml/morphic/internal/autodiff"
	"github.com/morphic-ml/morphic/internal/backend/cpu"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// TestAutodiffBackend_Name tests the Name method.
func TestAutodiffBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	expected := "Autodiff(CPU)"
	if backend.Name() != expected {
		t.Errorf("Name() = %s, want %s", backend.Name(), expected)
	}
}

// TestAutodiffBackend_Device tests the Device method.
func TestAutodiffBackend_Device(t *testing.T) {
	backend := autodiff.New(cpu.New())
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want %v", backend.Device(), tensor.CPU)
	}
}

// TestTape_Recording tests tape recording on/off.
func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	if tape.IsRecording() {
		t.Error("Tape should not be recording initially")
	}

	tape.StartRecording()
	if !tape.IsRecording() {
		t.Error("Tape should be recording after StartRecording()")
	}

	tape.StopRecording()
	if tape.IsRecording() {
		t.Error("Tape should not be recording after StopRecording()")
	}
}

// TestTape_Clear tests tape clearing.
func TestTape_Clear(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	tape.StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)
	backend.Add(a.Raw(), b.Raw())

	if tape.NumOps() == 0 {
		t.Error("Tape should have recorded operations")
	}

	tape.Clear()

	if tape.NumOps() != 0 {
		t.Errorf("Tape should be empty after Clear(), got %d ops", tape.NumOps())
	}

	// Clear preserves recording state so a training loop can reset the
	// tape between iterations without restarting recording.
	if !tape.IsRecording() {
		t.Error("Tape should still be recording after Clear()")
	}
}

// TestTape_NotRecordingSkipsOps verifies that operations run while the tape
// is stopped are not recorded.
func TestTape_NotRecordingSkipsOps(t *testing.T) {
	backend := autodiff.New(cpu.New())

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)
	backend.Add(a.Raw(), b.Raw())

	if backend.Tape().NumOps() != 0 {
		t.Errorf("expected 0 recorded ops, got %d", backend.Tape().NumOps())
	}
}

// TestBackward_Square checks dy/dx for y = x * x.
func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{2, 3, -1}, tensor.Shape{3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	y := x.Mul(x)
	grads := autodiff.Backward(y, backend)

	grad, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("no gradient computed for x")
	}

	// dy/dx = 2x
	want := []float32{4, 6, -2}
	got := grad.AsFloat32()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("grad[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestBackward_Chain checks gradient flow through a chain of operations:
// y = sum(exp(x) * x).
func TestBackward_Chain(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{0.5, 1.0}, tensor.Shape{2}, backend)

	y := x.Exp().Mul(x).Sum()
	grads := autodiff.Backward(y, backend)

	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient computed for x")
	}

	// d/dx (x * e^x) = e^x * (1 + x)
	got := grad.AsFloat32()
	for i, xv := range []float64{0.5, 1.0} {
		want := math.Exp(xv) * (1 + xv)
		if math.Abs(float64(got[i])-want) > 1e-5 {
			t.Errorf("grad[%d] = %v, want %v", i, got[i], want)
		}
	}
}

// TestBackward_Broadcast checks that gradients reduce back to the
// pre-broadcast shape.
func TestBackward_Broadcast(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	bias, _ := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend)

	y := a.Add(bias).Sum()
	grads := autodiff.Backward(y, backend)

	biasGrad := grads[bias.Raw()]
	if biasGrad == nil {
		t.Fatal("no gradient computed for bias")
	}
	if !biasGrad.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("bias grad shape = %v, want [3]", biasGrad.Shape())
	}

	// Each bias element is added to 2 rows, so its gradient is 2.
	for i, v := range biasGrad.AsFloat32() {
		if v != 2 {
			t.Errorf("biasGrad[%d] = %v, want 2", i, v)
		}
	}
}

// TestBackward_MatMul checks matrix multiplication gradients.
func TestBackward_MatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b, _ := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)

	grads := autodiff.Backward(a.MatMul(b).Sum(), backend)

	// dL/dA = G @ Bᵀ with G = ones(2,2)
	gradA := grads[a.Raw()]
	if gradA == nil {
		t.Fatal("no gradient computed for a")
	}
	wantA := []float32{11, 15, 11, 15}
	for i, v := range gradA.AsFloat32() {
		if math.Abs(float64(v-wantA[i])) > 1e-6 {
			t.Errorf("gradA[%d] = %v, want %v", i, v, wantA[i])
		}
	}

	// dL/dB = Aᵀ @ G
	gradB := grads[b.Raw()]
	if gradB == nil {
		t.Fatal("no gradient computed for b")
	}
	wantB := []float32{4, 4, 6, 6}
	for i, v := range gradB.AsFloat32() {
		if math.Abs(float64(v-wantB[i])) > 1e-6 {
			t.Errorf("gradB[%d] = %v, want %v", i, v, wantB[i])
		}
	}
}

// TestBackward_ScalarOps checks gradient flow through scalar operations.
func TestBackward_ScalarOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)

	// y = sum(3x + 1), dy/dx = 3
	y := x.MulScalar(float32(3)).AddScalar(float32(1)).Sum()
	grads := autodiff.Backward(y, backend)

	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient computed for x")
	}
	for i, v := range grad.AsFloat32() {
		if v != 3 {
			t.Errorf("grad[%d] = %v, want 3", i, v)
		}
	}
}

// TestBackward_Transpose checks that gradients flow back through transpose.
func TestBackward_Transpose(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	w, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	y := w.T().MulScalar(float32(2)).Sum()
	grads := autodiff.Backward(y, backend)

	grad := grads[w.Raw()]
	if grad == nil {
		t.Fatal("no gradient computed for w (transpose not recorded?)")
	}
	if !grad.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("grad shape = %v, want [2 3]", grad.Shape())
	}
	for i, v := range grad.AsFloat32() {
		if v != 2 {
			t.Errorf("grad[%d] = %v, want 2", i, v)
		}
	}
}

// TestBackward_SumDim checks gradients of a dimension reduction.
func TestBackward_SumDim(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	y := x.SumDim(1, false).Sum()
	grads := autodiff.Backward(y, backend)

	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient computed for x")
	}
	if !grad.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("grad shape = %v, want [2 3]", grad.Shape())
	}
	for i, v := range grad.AsFloat32() {
		if v != 1 {
			t.Errorf("grad[%d] = %v, want 1", i, v)
		}
	}
}

// TestBackward_OpsAfterOutput checks that operations recorded after the
// differentiated tensor was produced do not receive the seed: the gradient
// still flows from the tensor passed to Backward.
func TestBackward_OpsAfterOutput(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)

	y := x.Mul(x).Sum()
	_ = y.MulScalar(10) // recorded later, not part of y

	grads := autodiff.Backward(y, backend)

	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient computed for x")
	}

	// dy/dx = 2x
	want := []float32{2, 4, 6}
	got := grad.AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("grad[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
