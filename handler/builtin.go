package handler

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultTimeLayout is used for time.Time fields without a format tag.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Default returns a new lenient registry holding the built-in handlers.
// Each call returns an independent registry that callers may extend.
func Default() *Registry {
	r := NewLenientRegistry()
	for _, h := range builtins() {
		// builtins own their registration keys; Register cannot fail here
		_ = r.Register(h)
	}
	return r
}

func builtins() []Handler {
	return []Handler{
		NewFunc(writeBool, readBool),
		intHandler[int](strconv.IntSize),
		intHandler[int8](8),
		intHandler[int16](16),
		intHandler[int32](32),
		intHandler[int64](64),
		uintHandler[uint](strconv.IntSize),
		uintHandler[uint8](8),
		uintHandler[uint16](16),
		uintHandler[uint32](32),
		uintHandler[uint64](64),
		floatHandler[float32](32),
		floatHandler[float64](64),
		NewFunc(writeString, readString),
		NewFunc(writeTime, readTime),
		NewFunc(writeDuration, readDuration),
		NewFunc(writeIP, readIP),
		uuidHandler(),
		urlHandler(),
		bigIntHandler(),
		decimalHandler(),
		languageHandler(),
		pathHandler(),
		textHandler{},
	}
}

func writeBool(b bool, _ Context) (string, error) {
	return strconv.FormatBool(b), nil
}

func readBool(s string, _ Context) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func writeString(s string, _ Context) (string, error) {
	return s, nil
}

func readString(s string, _ Context) (string, error) {
	return s, nil
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// intHandler parses integers, accepting integral float text such as "12.0"
// which spreadsheet engines produce for numeric cells.
func intHandler[T signed](bits int) *Func[T] {
	return NewFunc(
		func(v T, _ Context) (string, error) {
			return strconv.FormatInt(int64(v), 10), nil
		},
		func(s string, _ Context) (T, error) {
			s = strings.TrimSpace(s)
			n, err := strconv.ParseInt(s, 10, bits)
			if err == nil {
				return T(n), nil
			}
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != math.Trunc(f) {
				return 0, err
			}
			n, err = strconv.ParseInt(strconv.FormatFloat(f, 'f', 0, 64), 10, bits)
			return T(n), err
		},
	)
}

func uintHandler[T unsigned](bits int) *Func[T] {
	return NewFunc(
		func(v T, _ Context) (string, error) {
			return strconv.FormatUint(uint64(v), 10), nil
		},
		func(s string, _ Context) (T, error) {
			s = strings.TrimSpace(s)
			n, err := strconv.ParseUint(s, 10, bits)
			if err == nil {
				return T(n), nil
			}
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f < 0 || f != math.Trunc(f) {
				return 0, err
			}
			n, err = strconv.ParseUint(strconv.FormatFloat(f, 'f', 0, 64), 10, bits)
			return T(n), err
		},
	)
}

func floatHandler[T ~float32 | ~float64](bits int) *Func[T] {
	return NewFunc(
		func(v T, _ Context) (string, error) {
			return strconv.FormatFloat(float64(v), 'f', -1, bits), nil
		},
		func(s string, _ Context) (T, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
			return T(f), err
		},
	)
}

func layout(ctx Context) string {
	if ctx.Format != "" {
		return ctx.Format
	}
	return DefaultTimeLayout
}

func location(ctx Context) *time.Location {
	if ctx.Location != nil {
		return ctx.Location
	}
	return time.UTC
}

func writeTime(t time.Time, ctx Context) (string, error) {
	if t.IsZero() {
		return "", nil
	}
	if ctx.Location != nil {
		t = t.In(ctx.Location)
	}
	return t.Format(layout(ctx)), nil
}

// readTime parses with the field layout; a bare number is taken as an
// Excel date serial, which is what unformatted date cells hold.
func readTime(s string, ctx Context) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(layout(ctx), s, location(ctx))
	if err == nil {
		return t, nil
	}
	if serial, ferr := strconv.ParseFloat(s, 64); ferr == nil {
		t, serr := excelize.ExcelDateToTime(serial, false)
		if serr == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), location(ctx)), nil
		}
	}
	return time.Time{}, fmt.Errorf("field %s: %w", ctx.Field, err)
}

func writeDuration(d time.Duration, _ Context) (string, error) {
	return d.String(), nil
}

func readDuration(s string, _ Context) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(s))
}

func writeIP(ip net.IP, _ Context) (string, error) {
	if len(ip) == 0 {
		return "", nil
	}
	return ip.String(), nil
}

func readIP(s string, _ Context) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address %q", s)
	}
	return ip, nil
}
