package testutils

// IntPtr returns a pointer to i, for optional fields in test fixtures.
func IntPtr(i int) *int { return &i }

// Int64Ptr returns a pointer to i.
func Int64Ptr(i int64) *int64 { return &i }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
