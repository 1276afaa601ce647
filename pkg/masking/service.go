package masking

import (
	"log/slog"

	"github.com/codeready-toolchain/lri/pkg/lce"
)

// LoggableEnvelope carries the fields of an lce.Envelope that are logged,
// with sig redacted. auth never appears here: it lives in LHS Bind, not LCE.
type LoggableEnvelope struct {
	V      int
	Intent lce.Intent
	Thread string
	Sig    string
}

// Service applies masking fail-open: a masking bug must never stop an
// envelope from being logged, only risk under-redacting it, mirroring the
// teacher's MaskAlertData fail-open convention (pkg/masking/service.go).
type Service struct{}

// NewService builds a masking Service. Stateless; exported mainly so
// cmd/lrid can wire it like the teacher wires MaskingService.
func NewService() *Service { return &Service{} }

// ForLog converts env into a form safe to pass to slog: sig replaced by
// RedactOpaque, everything else carried through unchanged.
func (s *Service) ForLog(env *lce.Envelope) LoggableEnvelope {
	out := LoggableEnvelope{V: env.V, Intent: env.Intent, Sig: RedactOpaque(env.Sig)}
	if env.Memory != nil {
		out.Thread = env.Memory.Thread
	}
	return out
}

// LogAttrs returns slog attributes for env, ready to splat into a log call:
// slog.Info("received envelope", masking.NewService().LogAttrs(env)...).
func (s *Service) LogAttrs(env *lce.Envelope) []any {
	lv := s.ForLog(env)
	return []any{
		slog.Int("v", lv.V),
		slog.String("intent", string(lv.Intent.Type)),
		slog.String("thread", lv.Thread),
		slog.String("sig", lv.Sig),
	}
}

// AuthMasker implements Masker for LHS Bind's opaque auth field. No code in
// this module calls it; the handshake code does not log auth.
type AuthMasker struct{}

func (AuthMasker) Name() string              { return "lhs-auth" }
func (AuthMasker) AppliesTo(data string) bool { return data != "" }
func (AuthMasker) Mask(data string) string    { return RedactOpaque(data) }
