// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package cp2130 controls a Silicon Labs CP2130 USB-to-SPI bridge wired
// to a WANDmini sEMG front end.
package cp2130

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gotmc/libusb"
)

const (
	vendorID       = 0x10c4
	productID      = 0x87a0
	defaultTimeout = 2000 // ms
)

// ErrDeviceNotFound is returned when no CP2130 matching the requested
// locator is on the bus.
var ErrDeviceNotFound = errors.New("cp2130: device not found")

// Locator identifies one CP2130 bridge on the bus.
type Locator struct {
	Bus     int    `json:"bus"`
	Address int    `json:"address"`
	Serial  string `json:"serial_number,omitempty"`
}

func (l Locator) String() string {
	if l.Serial != "" {
		return fmt.Sprintf("bus %d addr %d (S/N %s)", l.Bus, l.Address, l.Serial)
	}
	return fmt.Sprintf("bus %d addr %d", l.Bus, l.Address)
}

// Device models an open, exclusively claimed CP2130 bridge.
type Device struct {
	Timeout          int
	Device           *libusb.Device
	DeviceDescriptor *libusb.DeviceDescriptor
	DeviceHandle     *libusb.DeviceHandle
	ConfigDescriptor *libusb.ConfigDescriptor
	InEndpoint       *libusb.EndpointDescriptor
	OutEndpoint      *libusb.EndpointDescriptor
	closed           bool
}

// Init intializes a new libusb session/context by creating a new Context
// and returning a pointer to that Context.
func Init() (*libusb.Context, error) {
	return libusb.NewContext()
}

// ListDevices enumerates every CP2130 bridge on the bus and returns a
// locator for each. A bridge whose serial number cannot be read is still
// listed, with an empty serial.
func ListDevices(ctx *libusb.Context) ([]Locator, error) {
	usbDevices, err := ctx.GetDeviceList()
	if err != nil {
		return nil, fmt.Errorf("error getting USB device list: %s", err)
	}
	var locators []Locator
	for _, usbDevice := range usbDevices {
		usbDeviceDescriptor, err := usbDevice.GetDeviceDescriptor()
		if err != nil {
			return locators, fmt.Errorf("error getting device descriptor: %s", err)
		}
		if usbDeviceDescriptor.VendorID != vendorID ||
			usbDeviceDescriptor.ProductID != productID {
			continue
		}
		loc := Locator{}
		if bus, err := usbDevice.GetBusNumber(); err == nil {
			loc.Bus = bus
		}
		if addr, err := usbDevice.GetDeviceAddress(); err == nil {
			loc.Address = addr
		}
		if usbDeviceHandle, err := usbDevice.Open(); err == nil {
			if sn, err := usbDeviceHandle.GetStringDescriptorASCII(
				usbDeviceDescriptor.SerialNumberIndex); err == nil {
				loc.Serial = sn
			}
			usbDeviceHandle.Close()
		}
		locators = append(locators, loc)
	}
	return locators, nil
}

// OpenViaSN opens the CP2130 bridge with the given serial number.
func OpenViaSN(ctx *libusb.Context, sn string) (*Device, error) {
	usbDevices, err := ctx.GetDeviceList()
	if err != nil {
		return nil, fmt.Errorf("error getting USB device list: %s", err)
	}
	for _, usbDevice := range usbDevices {
		usbDeviceDescriptor, err := usbDevice.GetDeviceDescriptor()
		if err != nil {
			return nil, fmt.Errorf("error getting device descriptor: %s", err)
		}
		if usbDeviceDescriptor.VendorID != vendorID ||
			usbDeviceDescriptor.ProductID != productID {
			continue
		}
		usbDeviceHandle, err := usbDevice.Open()
		if err != nil {
			return nil, fmt.Errorf("error getting device handle: %s", err)
		}
		serialNum, err := usbDeviceHandle.GetStringDescriptorASCII(
			usbDeviceDescriptor.SerialNumberIndex)
		if err != nil {
			usbDeviceHandle.Close()
			return nil, fmt.Errorf("error reading S/N: %s", err)
		}
		if serialNum == sn {
			log.Printf("Found S/N %s. Creating device", sn)
			return create(usbDevice, usbDeviceHandle)
		}
		usbDeviceHandle.Close()
	}
	return nil, fmt.Errorf("%w: no bridge with S/N %s", ErrDeviceNotFound, sn)
}

// OpenFirstDevice opens the first CP2130 bridge found in the USB context.
func OpenFirstDevice(ctx *libusb.Context) (*Device, error) {
	dev, dh, err := ctx.OpenDeviceWithVendorProduct(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, err)
	}
	return create(dev, dh)
}

// Open opens the bridge identified by the locator. A locator with a
// serial number is matched on that alone; otherwise the bus number and
// device address are used; a zero locator opens the first bridge found.
func Open(ctx *libusb.Context, loc Locator) (*Device, error) {
	if loc.Serial != "" {
		return OpenViaSN(ctx, loc.Serial)
	}
	if loc.Bus == 0 && loc.Address == 0 {
		return OpenFirstDevice(ctx)
	}
	usbDevices, err := ctx.GetDeviceList()
	if err != nil {
		return nil, fmt.Errorf("error getting USB device list: %s", err)
	}
	for _, usbDevice := range usbDevices {
		usbDeviceDescriptor, err := usbDevice.GetDeviceDescriptor()
		if err != nil {
			return nil, fmt.Errorf("error getting device descriptor: %s", err)
		}
		if usbDeviceDescriptor.VendorID != vendorID ||
			usbDeviceDescriptor.ProductID != productID {
			continue
		}
		bus, err := usbDevice.GetBusNumber()
		if err != nil {
			continue
		}
		addr, err := usbDevice.GetDeviceAddress()
		if err != nil {
			continue
		}
		if bus == loc.Bus && addr == loc.Address {
			usbDeviceHandle, err := usbDevice.Open()
			if err != nil {
				return nil, fmt.Errorf("error getting device handle: %s", err)
			}
			return create(usbDevice, usbDeviceHandle)
		}
	}
	return nil, fmt.Errorf("%w: no bridge at %s", ErrDeviceNotFound, loc)
}

func create(dev *libusb.Device, dh *libusb.DeviceHandle) (*Device, error) {
	var bridge Device
	err := dh.ClaimInterface(0)
	if err != nil {
		return nil, fmt.Errorf("error claiming the bulk interface %s", err)
	}
	bridge.Timeout = defaultTimeout
	bridge.Device = dev
	bridge.DeviceHandle = dh
	deviceDescriptor, err := bridge.Device.GetDeviceDescriptor()
	if err != nil {
		return nil, fmt.Errorf("error getting device descriptor %s", err)
	}
	bridge.DeviceDescriptor = deviceDescriptor
	configDescriptor, err := bridge.Device.GetActiveConfigDescriptor()
	if err != nil {
		return nil, fmt.Errorf("error getting active config descriptor. %s", err)
	}
	bridge.ConfigDescriptor = configDescriptor
	firstDescriptor := configDescriptor.SupportedInterfaces[0].InterfaceDescriptors[0]
	for _, endpoint := range firstDescriptor.EndpointDescriptors {
		if endpoint.EndpointAddress&0x80 != 0 {
			bridge.InEndpoint = endpoint
		} else {
			bridge.OutEndpoint = endpoint
		}
	}
	if bridge.InEndpoint == nil || bridge.OutEndpoint == nil {
		dh.ReleaseInterface(0)
		dh.Close()
		return nil, fmt.Errorf("bridge is missing a bulk endpoint pair")
	}
	return &bridge, nil
}

// Close releases the claimed interface and closes the device handle.
// Close may be called more than once; failures are logged, not returned.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if err := d.DeviceHandle.ReleaseInterface(0); err != nil {
		log.Printf("error releasing interface: %s", err)
	}
	d.DeviceHandle.Close()
}

// Configure prepares the bridge for streaming by setting the USB
// transfer priority and the SPI word parameters.
func (d *Device) Configure() error {
	if err := d.SetUSBConfig(); err != nil {
		return err
	}
	return d.SetSPIWord()
}

// SetUSBConfig selects high-priority bulk read transfers. The write mask
// leaves the bridge's VID/PID and power configuration untouched.
func (d *Device) SetUSBConfig() error {
	requestType := libusb.BitmapRequestType(
		libusb.HostToDevice, libusb.Vendor, libusb.DeviceRecipient)
	data := []byte{
		0xc4, 0x10, // VID (masked out)
		0xa0, 0x87, // PID (masked out)
		0x32,       // max power (masked out)
		0x00,       // power mode (masked out)
		0x00, 0x00, // release version (masked out)
		0x01, // transfer priority: high-priority read
		0x80, // write mask: transfer priority only
	}
	_, err := d.DeviceHandle.ControlTransfer(
		requestType, byte(commandSetUSBConfig), 0x0, 0x0, data, len(data), d.Timeout)
	if err != nil {
		return fmt.Errorf("error sending command '%s' to bridge: %s", commandSetUSBConfig, err)
	}
	return nil
}

// SetSPIWord configures SPI channel 0 for the WANDmini front end: clock
// idle low, leading-edge sampling, push-pull chip select, 12 MHz clock.
func (d *Device) SetSPIWord() error {
	requestType := libusb.BitmapRequestType(
		libusb.HostToDevice, libusb.Vendor, libusb.DeviceRecipient)
	data := []byte{0x00, 0x3b}
	_, err := d.DeviceHandle.ControlTransfer(
		requestType, byte(commandSetSPIWord), 0x0, 0x0, data, len(data), d.Timeout)
	if err != nil {
		return fmt.Errorf("error sending command '%s' to bridge: %s", commandSetSPIWord, err)
	}
	return nil
}

// BulkWrite sends the payload to the front end over the SPI bulk pipe,
// prefixed with the bridge's write command header.
func (d *Device) BulkWrite(p []byte) error {
	cmd := append(spiCommand(spiWrite, len(p)), p...)
	_, err := d.DeviceHandle.BulkTransfer(
		d.OutEndpoint.EndpointAddress, cmd, len(cmd), d.Timeout)
	if err != nil {
		return fmt.Errorf("error writing %d bytes to SPI: %s", len(p), err)
	}
	return nil
}

// BulkRead asks the bridge for up to maxBytes from the SPI bus and
// performs the bulk IN transfer. A transfer that times out with no data
// returns an empty slice and no error.
func (d *Device) BulkRead(maxBytes int, timeout time.Duration) ([]byte, error) {
	cmd := spiCommand(spiRead, maxBytes)
	_, err := d.DeviceHandle.BulkTransfer(
		d.OutEndpoint.EndpointAddress, cmd, len(cmd), d.Timeout)
	if err != nil {
		return nil, fmt.Errorf("error issuing SPI read command: %s", err)
	}
	data := make([]byte, maxBytes)
	ms := int(timeout / time.Millisecond)
	if ms <= 0 {
		ms = d.Timeout
	}
	n, err := d.DeviceHandle.BulkTransfer(
		d.InEndpoint.EndpointAddress, data, len(data), ms)
	if n > 0 {
		return data[:n], nil
	}
	if err != nil {
		// A quiet bus times out with no data; that is an empty read,
		// not a transport failure.
		if isTimeout(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading %d bytes from SPI: %s", maxBytes, err)
	}
	return nil, nil
}

// isTimeout reports whether a transfer error is libusb's timeout
// result. The binding does not export its error codes, so the strerror
// text is matched instead.
func isTimeout(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "timed out") || strings.Contains(msg, "TIMEOUT")
}

// WriteRegister writes one front-end register over SPI.
func (d *Device) WriteRegister(page, addr, value byte) error {
	if err := d.BulkWrite([]byte{regWriteOpcode, page, addr, value}); err != nil {
		return fmt.Errorf("error writing register %#02x on page %d: %s", addr, page, err)
	}
	return nil
}

// FlushRadioFIFO discards any samples buffered in the front end's radio
// FIFO from a previous run.
func (d *Device) FlushRadioFIFO() error {
	return d.BulkWrite([]byte{opcodeFlushRadioFIFO})
}

// StartStream puts the front end into streaming mode.
func (d *Device) StartStream() error {
	return d.BulkWrite([]byte{opcodeStartStream})
}

// StopStream takes the front end out of streaming mode.
func (d *Device) StopStream() error {
	return d.BulkWrite([]byte{opcodeStopStream})
}
