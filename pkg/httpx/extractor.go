// Package httpx pulls LCE envelopes out of HTTP requests (component D of
// SPEC_FULL.md): the deliberately-thin integration glue between the LCE
// codec/validator and whatever web framework a service uses.
package httpx

import (
	"errors"
	"net/http"

	"github.com/codeready-toolchain/lri/pkg/lce"
)

// DefaultHeaderName is the header LCE envelopes travel in unless overridden.
const DefaultHeaderName = "LCE"

// Options configures an Extractor, matching the Configuration Surface table
// in spec §6.
type Options struct {
	// HeaderName is the HTTP header to extract the envelope from. Empty
	// defaults to DefaultHeaderName.
	HeaderName string

	// Validate is not consulted by Extract: the strict parse in lce.Decode
	// is the soft validator with zero diagnostics required, and it runs
	// whatever this flag says, so a wholly ill-formed envelope still fails.
	Validate bool

	// Required, when true, makes a missing header a MissingHeader error
	// instead of "no envelope".
	Required bool
}

func (o Options) headerName() string {
	if o.HeaderName == "" {
		return DefaultHeaderName
	}
	return o.HeaderName
}

// Sentinel errors for the HTTP boundary taxonomy, spec §4.D/§7.
var (
	ErrMissingHeader = errors.New("LCE header required")
)

// Result is what Extract returns on success: either an envelope was present
// and valid, or the header was legitimately absent and not required.
type Result struct {
	Envelope *lce.Envelope
	Present  bool
}

// HTTPError carries the status code and user-facing message spec §4.D/§6
// require for each failure taxonomy.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string { return e.Message }
func (e *HTTPError) Unwrap() error { return e.Err }

// Extractor pulls and validates an LCE from a configured request header.
type Extractor struct {
	opts Options
}

// New builds an Extractor from opts.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract implements spec §4.D's four-step procedure against a stdlib
// http.Header, returning a taxonomized *HTTPError on any failure.
func (x *Extractor) Extract(h http.Header) (Result, *HTTPError) {
	raw := h.Get(x.opts.headerName())
	if raw == "" {
		if x.opts.Required {
			return Result{}, &HTTPError{
				Status:  http.StatusPreconditionRequired,
				Message: "LCE header required",
				Err:     ErrMissingHeader,
			}
		}
		return Result{Present: false}, nil
	}

	env, err := lce.Decode(raw)
	if err != nil {
		switch {
		case errors.Is(err, lce.ErrMalformedHeader):
			return Result{}, &HTTPError{
				Status:  http.StatusBadRequest,
				Message: "Malformed LCE header",
				Err:     err,
			}
		case errors.Is(err, lce.ErrInvalidJSON):
			return Result{}, &HTTPError{
				Status:  http.StatusBadRequest,
				Message: "Malformed LCE header: invalid JSON",
				Err:     err,
			}
		case errors.Is(err, lce.ErrInvalidLCE):
			return Result{}, &HTTPError{
				Status:  http.StatusUnprocessableEntity,
				Message: "Invalid LCE",
				Err:     err,
			}
		default:
			return Result{}, &HTTPError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
		}
	}

	// opts.Validate is not read here; the strict structural parse above
	// (lce.Decode) runs regardless, so a wholly ill-formed envelope always
	// fails with 422 per spec §4.D step 4.
	return Result{Envelope: env, Present: true}, nil
}
