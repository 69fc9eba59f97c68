// Package device defines the driver contract implemented by every device in
// the console core. The machine constructs its fixed device set directly and
// walks the drivers through DriverInit at boot, logging each driver's output.
package device

import (
	"io"

	"goros/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer.
	DriverInit(io.Writer) *kernel.Error
}
