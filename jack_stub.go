//go:build !jack
// +build !jack

package sfzvoice

import "fmt"

// JackDriver stub for builds without JACK support (build with '-tags jack'
// and JACK development headers installed to get the real driver in jack.go).
type JackDriver struct{}

// NewJackDriver returns an error explaining how to enable JACK support.
func NewJackDriver(sampler *Sampler, clientName string) (*JackDriver, error) {
	return nil, fmt.Errorf("JACK support not enabled - rebuild with '-tags jack' and ensure JACK development headers are installed")
}

func (jd *JackDriver) Start() error { return fmt.Errorf("JACK support not enabled") }
func (jd *JackDriver) Stop() error  { return fmt.Errorf("JACK support not enabled") }
func (jd *JackDriver) Close() error { return fmt.Errorf("JACK support not enabled") }
