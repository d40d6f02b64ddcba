package decay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultDevicePath is the well-known location of the entropy_mem kernel
// device.
const DefaultDevicePath = "/dev/entropy_mem"

// ErrInvalidContent reports content that cannot be written to the device as
// UTF-8 bytes. This is a caller-input problem, so unlike device failures it
// surfaces as a hard construction error instead of triggering fallback.
var ErrInvalidContent = errors.New("content is not valid UTF-8")

// readChunk bounds a single device read.
const readChunk = 4096

// device is the kernel-backed decay backend. The device owns the corruption
// algorithm; this side only writes the initial content and reads back
// whatever the device has degraded it into.
type device struct {
	f *os.File
}

// bindDevice opens the device read-write and writes the initial content.
// Any OS-level failure is returned for the caller to treat as a fallback
// signal, except ErrInvalidContent which must propagate. Open failures take
// precedence: content is only validated once a handle exists, so an
// unopenable device always reads as an operational fallback.
func bindDevice(path, content string) (*device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}

	d := &device{f: f}
	if err := d.write(content); err != nil {
		d.release()
		return nil, fmt.Errorf("write device: %w", err)
	}
	return d, nil
}

func (d *device) write(content string) error {
	if !utf8.ValidString(content) {
		return ErrInvalidContent
	}
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := d.f.Write([]byte(content))
	return err
}

// value reads back the device content. Decoding is lenient — the device may
// have corrupted bytes into invalid UTF-8 — and an I/O failure yields a
// diagnostic string rather than an error, so callers always get something.
func (d *device) value() string {
	if d.f == nil {
		return ""
	}

	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Sprintf("<device error: %v>", err)
	}
	buf := make([]byte, readChunk)
	n, err := d.f.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Sprintf("<device error: %v>", err)
	}
	return strings.ToValidUTF8(string(buf[:n]), "�")
}

func (d *device) bound() bool {
	return d.f != nil
}

// close clears the device (best effort) and releases the handle. The handle
// is released even if the clearing write fails. Idempotent.
func (d *device) close() {
	if d.f == nil {
		return
	}
	d.write("") // clear storage; failure is not fatal
	d.release()
}

func (d *device) release() {
	if d.f != nil {
		d.f.Close()
		d.f = nil
	}
}
