package service

// Session identifies the authenticated actor for a single operation. The
// caller is trusted to supply the correct email; no token verification
// happens at this layer.
type Session struct {
	Email string
}
