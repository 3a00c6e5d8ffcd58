package cli

// Indirection layer to allow stubbing in tests

var (
	fnProbe  = runProbe
	fnMatrix = runMatrix
	fnServe  = runServe
)
