package id

// Gen returns the next id, zero is never returned.
type Gen func() uint64

// OwnerGen stamps containers with ids, so a handle minted by one container
// is recognised as foreign by another.
type OwnerGen interface {
	Next() uint64
	// Issued is the last id handed out, zero before the first call.
	Issued() uint64
}
