package lce

import (
	"fmt"
	"sort"
)

// Diagnostic is a single path-tagged validation failure. The soft validator
// accumulates these instead of raising, so diagnostic consumers (error
// responses, logs) can report every violation found in one pass.
type Diagnostic struct {
	Path    string
	Message string
}

func (d Diagnostic) String() string { return fmt.Sprintf("%s: %s", d.Path, d.Message) }

// topLevelKeys are the only keys an envelope may carry. Anything else is
// rejected per spec §3 ("rejection of unknown top-level keys").
var topLevelKeys = map[string]bool{
	"v": true, "intent": true, "affect": true, "meaning": true, "trust": true,
	"memory": true, "policy": true, "qos": true, "trace": true, "sig": true,
}

// Validate runs the soft structural validator over a decoded JSON object and
// returns the best-effort Envelope it could build along with every
// diagnostic found. The returned Envelope is only meaningful when len(diags)
// == 0; callers that need strict acceptance should use Strict instead.
func Validate(raw map[string]any) (*Envelope, []Diagnostic) {
	var diags []Diagnostic
	env := &Envelope{}

	for k := range raw {
		if !topLevelKeys[k] {
			diags = append(diags, Diagnostic{Path: k, Message: "Unknown field"})
		}
	}

	diags = append(diags, validateVersion(raw, env)...)
	diags = append(diags, validateIntent(raw, env)...)
	diags = append(diags, validatePolicy(raw, env)...)
	diags = append(diags, validateAffect(raw, env)...)
	diags = append(diags, validateQoS(raw, env)...)
	diags = append(diags, validateMeaning(raw, env)...)
	diags = append(diags, validateTrust(raw, env)...)
	diags = append(diags, validateMemory(raw, env)...)
	diags = append(diags, validateTrace(raw, env)...)

	if sig, ok := raw["sig"]; ok {
		if s, ok := sig.(string); ok {
			env.Sig = s
		} else {
			diags = append(diags, Diagnostic{Path: "sig", Message: "Sig must be a string"})
		}
	}

	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Path < diags[j].Path })
	return env, diags
}

func validateVersion(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["v"]
	if !ok {
		return []Diagnostic{{Path: "v", Message: "LCE version must be 1"}}
	}
	n, ok := asInt(v)
	if !ok || n != SchemaVersion {
		return []Diagnostic{{Path: "v", Message: "LCE version must be 1"}}
	}
	env.V = n
	return nil
}

func validateIntent(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["intent"]
	if !ok {
		return []Diagnostic{{Path: "intent", Message: "Intent must be an object"}}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "intent", Message: "Intent must be an object"}}
	}
	var diags []Diagnostic
	typeVal, ok := obj["type"]
	if !ok {
		diags = append(diags, Diagnostic{Path: "intent.type", Message: "Invalid intent type"})
	} else {
		s, ok := typeVal.(string)
		if !ok || !IntentType(s).Valid() {
			diags = append(diags, Diagnostic{Path: "intent.type", Message: "Invalid intent type"})
		} else {
			env.Intent.Type = IntentType(s)
		}
	}
	if goal, ok := obj["goal"]; ok {
		if s, ok := goal.(string); ok {
			env.Intent.Goal = s
		} else {
			diags = append(diags, Diagnostic{Path: "intent.goal", Message: "Goal must be a string"})
		}
	}
	return diags
}

func validatePolicy(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["policy"]
	if !ok {
		return []Diagnostic{{Path: "policy", Message: "Policy must be an object"}}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "policy", Message: "Policy must be an object"}}
	}
	var diags []Diagnostic
	consentVal, ok := obj["consent"]
	if !ok {
		diags = append(diags, Diagnostic{Path: "policy.consent", Message: "Invalid consent level"})
	} else {
		s, ok := consentVal.(string)
		if !ok || !Consent(s).Valid() {
			diags = append(diags, Diagnostic{Path: "policy.consent", Message: "Invalid consent level"})
		} else {
			env.Policy.Consent = Consent(s)
		}
	}
	if share, ok := obj["share"]; ok {
		ss, derr := asStringSlice(share)
		if derr != nil {
			diags = append(diags, Diagnostic{Path: "policy.share", Message: "Share must be an array of strings"})
		} else {
			env.Policy.Share = ss
		}
	}
	if dp, ok := obj["dp"]; ok {
		if s, ok := dp.(string); ok {
			env.Policy.DP = s
		} else {
			diags = append(diags, Diagnostic{Path: "policy.dp", Message: "DP must be a string"})
		}
	}
	return diags
}

func validateAffect(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["affect"]
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "affect", Message: "Affect must be an object"}}
	}
	var diags []Diagnostic
	affect := &Affect{}
	if pad, ok := obj["pad"]; ok {
		arr, ok := pad.([]any)
		if !ok || len(arr) != 3 {
			diags = append(diags, Diagnostic{Path: "affect.pad", Message: "PAD must be array of 3 numbers"})
		} else {
			var triple [3]float64
			bad := false
			for i, el := range arr {
				f, ok := asFloat(el)
				if !ok {
					bad = true
					break
				}
				if f < -1 || f > 1 {
					diags = append(diags, Diagnostic{Path: "affect.pad", Message: "PAD values must be numbers in range"})
					bad = true
					break
				}
				triple[i] = f
			}
			if !bad {
				affect.PAD = &triple
			} else if len(diags) == 0 {
				diags = append(diags, Diagnostic{Path: "affect.pad", Message: "PAD must be array of 3 numbers"})
			}
		}
	}
	if tags, ok := obj["tags"]; ok {
		ss, err := asStringSlice(tags)
		if err != nil {
			diags = append(diags, Diagnostic{Path: "affect.tags", Message: "Tags must be an array of strings"})
		} else {
			affect.Tags = ss
		}
	}
	env.Affect = affect
	return diags
}

func validateQoS(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["qos"]
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "qos", Message: "QoS must be an object"}}
	}
	var diags []Diagnostic
	qos := &QoS{}
	if coherence, ok := obj["coherence"]; ok {
		f, ok := asFloat(coherence)
		if !ok || f < 0 || f > 1 {
			diags = append(diags, Diagnostic{Path: "qos.coherence", Message: "Coherence must be number in range"})
		} else {
			qos.Coherence = &f
		}
	}
	if stability, ok := obj["stability"]; ok {
		f, ok := asFloat(stability)
		if !ok {
			diags = append(diags, Diagnostic{Path: "qos.stability", Message: "Stability must be a number"})
		} else {
			qos.Stability = &f
		}
	}
	env.QoS = qos
	return diags
}

func validateMeaning(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["meaning"]
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "meaning", Message: "Meaning must be an object"}}
	}
	meaning := &Meaning{}
	var diags []Diagnostic
	if topic, ok := obj["topic"]; ok {
		if s, ok := topic.(string); ok {
			meaning.Topic = s
		} else {
			diags = append(diags, Diagnostic{Path: "meaning.topic", Message: "Topic must be a string"})
		}
	}
	if ontology, ok := obj["ontology"]; ok {
		if s, ok := ontology.(string); ok {
			meaning.Ontology = s
		} else {
			diags = append(diags, Diagnostic{Path: "meaning.ontology", Message: "Ontology must be a string"})
		}
	}
	env.Meaning = meaning
	return diags
}

func validateTrust(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["trust"]
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "trust", Message: "Trust must be an object"}}
	}
	trust := &Trust{}
	var diags []Diagnostic
	if proof, ok := obj["proof"]; ok {
		if s, ok := proof.(string); ok {
			trust.Proof = s
		} else {
			diags = append(diags, Diagnostic{Path: "trust.proof", Message: "Proof must be a string"})
		}
	}
	if attest, ok := obj["attest"]; ok {
		ss, err := asStringSlice(attest)
		if err != nil {
			diags = append(diags, Diagnostic{Path: "trust.attest", Message: "Attest must be an array of strings"})
		} else {
			trust.Attest = ss
		}
	}
	env.Trust = trust
	return diags
}

func validateMemory(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["memory"]
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "memory", Message: "Memory must be an object"}}
	}
	memory := &Memory{}
	var diags []Diagnostic
	for _, f := range []struct {
		key string
		dst *string
	}{{"thread", &memory.Thread}, {"t", &memory.T}, {"ttl", &memory.TTL}} {
		if val, ok := obj[f.key]; ok {
			if s, ok := val.(string); ok {
				*f.dst = s
			} else {
				diags = append(diags, Diagnostic{Path: "memory." + f.key, Message: "Must be a string"})
			}
		}
	}
	env.Memory = memory
	return diags
}

func validateTrace(raw map[string]any, env *Envelope) []Diagnostic {
	v, ok := raw["trace"]
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return []Diagnostic{{Path: "trace", Message: "Trace must be an object"}}
	}
	trace := &Trace{}
	var diags []Diagnostic
	if hop, ok := obj["hop"]; ok {
		n, ok := asInt(hop)
		if !ok || n < 0 {
			diags = append(diags, Diagnostic{Path: "trace.hop", Message: "Hop must be a non-negative integer"})
		} else {
			trace.Hop = &n
		}
	}
	if provenance, ok := obj["provenance"]; ok {
		if s, ok := provenance.(string); ok {
			trace.Provenance = s
		} else {
			diags = append(diags, Diagnostic{Path: "trace.provenance", Message: "Provenance must be a string"})
		}
	}
	env.Trace = trace
	return diags
}

// Strict reports whether raw is a wholly valid envelope. It is defined in
// terms of Validate per the design note in SPEC_FULL.md §4.A/4.B: strict
// acceptance == zero soft diagnostics.
func Strict(raw map[string]any) (*Envelope, bool) {
	env, diags := Validate(raw)
	return env, len(diags) == 0
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not an array")
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, fmt.Errorf("element is not a string")
		}
		out = append(out, s)
	}
	return out, nil
}
