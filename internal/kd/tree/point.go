package tree

// Scalar is the coordinate type of a tree.
type Scalar interface {
	~float32 | ~float64
}

// Entry is a stored point and its caller supplied payload.
type Entry[S Scalar, P any] struct {
	Point   []S
	Payload P
}
