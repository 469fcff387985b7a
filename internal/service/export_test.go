package service

import "time"

// SetNow overrides the service clock so tests can move through the
// retention window without sleeping.
func (s *TrashService) SetNow(now func() time.Time) { s.now = now }
