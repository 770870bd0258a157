package tensor

import (
	"fmt"
	"math"
	"testing"
)

func assertEqualFloat32(t *testing.T, expected, got float32, msg string) {
	t.Helper()
	if math.Abs(float64(expected-got)) > 1e-5 {
		t.Errorf("%s: expected %v, got %v", msg, expected, got)
	}
}

func assertEqualShape(t *testing.T, expected, got Shape, msg string) {
	t.Helper()
	if !expected.Equal(got) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, got)
	}
}

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()

	data := []float32{1, 2, 3, 4, 5, 6}
	x, err := FromSlice(data, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	assertEqualShape(t, Shape{2, 3}, x.Shape(), "FromSlice shape")
	assertEqualFloat32(t, 6, x.At(1, 2), "FromSlice At(1,2)")
}

func TestFromSliceShapeMismatch(t *testing.T) {
	backend := NewMockBackend()

	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, backend)
	if err == nil {
		t.Fatal("expected error for mismatched shape")
	}
}

func TestTensorAdd(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{10, 20, 30, 40}, Shape{2, 2}, backend)

	c := a.Add(b)

	expected := []float32{11, 22, 33, 44}
	got := c.Data()
	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("Add[%d]", i))
	}
}

func TestTensorAddBroadcast(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	b, _ := FromSlice([]float32{10, 20, 30}, Shape{3}, backend)

	c := a.Add(b)

	assertEqualShape(t, Shape{2, 3}, c.Shape(), "broadcast Add shape")
	expected := []float32{11, 22, 33, 14, 25, 36}
	got := c.Data()
	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("broadcast Add[%d]", i))
	}
}

func TestTensorMatMul(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{1, 0, 0, 1}, Shape{2, 2}, backend)

	c := a.MatMul(b)

	assertEqualShape(t, Shape{2, 2}, c.Shape(), "MatMul shape")
	expected := []float32{1, 2, 3, 4}
	got := c.Data()
	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("MatMul[%d]", i))
	}
}

func TestTensorScalarOps(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{4}, backend)

	b := a.MulScalar(2).AddScalar(1)

	expected := []float32{3, 5, 7, 9}
	got := b.Data()
	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("scalar chain[%d]", i))
	}
}

func TestTensorSum(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	s := a.Sum()
	assertEqualFloat32(t, 10, s.Item(), "Sum")
}

func TestCreation(t *testing.T) {
	backend := NewMockBackend()

	zeros := Zeros[float32](Shape{2, 3}, backend)
	for i, v := range zeros.Data() {
		assertEqualFloat32(t, 0, v, fmt.Sprintf("Zeros[%d]", i))
	}

	ones := Ones[float32](Shape{2, 3}, backend)
	for i, v := range ones.Data() {
		assertEqualFloat32(t, 1, v, fmt.Sprintf("Ones[%d]", i))
	}

	full := Full[float32](Shape{4}, 7.5, backend)
	for i, v := range full.Data() {
		assertEqualFloat32(t, 7.5, v, fmt.Sprintf("Full[%d]", i))
	}

	ar := Arange[float32](0, 5, backend)
	assertEqualShape(t, Shape{5}, ar.Shape(), "Arange shape")
	for i := 0; i < 5; i++ {
		assertEqualFloat32(t, float32(i), ar.At(i), fmt.Sprintf("Arange[%d]", i))
	}

	eye := Eye[float32](3, backend)
	assertEqualFloat32(t, 1, eye.At(1, 1), "Eye diagonal")
	assertEqualFloat32(t, 0, eye.At(0, 2), "Eye off-diagonal")
}

func TestCloneSharesBuffer(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.IsUnique() {
		t.Fatal("fresh tensor should be unique")
	}

	clone := raw.Clone()
	if raw.IsUnique() || clone.IsUnique() {
		t.Fatal("clone should share the buffer")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Fatal("release should restore uniqueness")
	}
}

func TestForceNonUnique(t *testing.T) {
	raw, _ := NewRaw(Shape{4}, Float32, CPU)

	restore := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Fatal("ForceNonUnique should make tensor non-unique")
	}
	restore()
	if !raw.IsUnique() {
		t.Fatal("restore should make tensor unique again")
	}
}

func TestWrapDim(t *testing.T) {
	s := Shape{2, 3, 4}

	d, err := s.WrapDim(-1)
	if err != nil || d != 2 {
		t.Fatalf("WrapDim(-1) = %d, %v; want 2, nil", d, err)
	}

	d, err = s.WrapDim(1)
	if err != nil || d != 1 {
		t.Fatalf("WrapDim(1) = %d, %v; want 1, nil", d, err)
	}

	if _, err := s.WrapDim(3); err == nil {
		t.Fatal("WrapDim(3) should fail for rank-3 shape")
	}
	if _, err := s.WrapDim(-4); err == nil {
		t.Fatal("WrapDim(-4) should fail for rank-3 shape")
	}
}

func TestBroadcastShapes(t *testing.T) {
	result, needs, err := BroadcastShapes(Shape{3, 1}, Shape{3, 5})
	if err != nil {
		t.Fatalf("BroadcastShapes failed: %v", err)
	}
	if !needs {
		t.Error("expected broadcasting to be needed")
	}
	assertEqualShape(t, Shape{3, 5}, result, "broadcast result")

	if _, _, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5}); err == nil {
		t.Error("expected incompatible shapes to fail")
	}
}

func TestDetach(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2}, Shape{2}, backend)
	a.RequireGrad()

	d := a.Detach()
	if d.RequiresGrad() {
		t.Error("detached tensor should not require grad")
	}
	if d.Raw() != a.Raw() {
		t.Error("detached tensor should share data")
	}
}
