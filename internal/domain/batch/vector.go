package batch

// VectorWrite is one embedding to store for a document.
type VectorWrite struct {
	DocID  string
	Vector []float32
}
