package pipeline

// Batch is a contiguous half-open range of line indexes rendered as one
// segment.
type Batch struct {
	Index int
	Start int
	End   int
}

// Len returns the number of lines in the batch.
func (b Batch) Len() int { return b.End - b.Start }

// Partition splits n lines into contiguous batches of at most size lines.
// Order is preserved: batch k covers lines [k*size, min((k+1)*size, n)).
// A non-positive size yields a single batch covering everything.
func Partition(n, size int) []Batch {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		return []Batch{{Index: 0, Start: 0, End: n}}
	}
	batches := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch{Index: len(batches), Start: start, End: end})
	}
	return batches
}
