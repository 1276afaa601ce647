// Package lce defines the Linguistic Context Envelope: the versioned,
// strictly-typed payload exchanged between LRI services over HTTP headers
// and WebSocket frames.
package lce

// IntentType names the conversational act carried by an envelope.
type IntentType string

const (
	IntentAsk       IntentType = "ask"
	IntentTell      IntentType = "tell"
	IntentPropose   IntentType = "propose"
	IntentConfirm   IntentType = "confirm"
	IntentNotify    IntentType = "notify"
	IntentSync      IntentType = "sync"
	IntentPlan      IntentType = "plan"
	IntentAgree     IntentType = "agree"
	IntentDisagree  IntentType = "disagree"
	IntentReflect   IntentType = "reflect"
)

// validIntentTypes backs IntentType.Valid without allocating per call.
var validIntentTypes = map[IntentType]bool{
	IntentAsk:      true,
	IntentTell:     true,
	IntentPropose:  true,
	IntentConfirm:  true,
	IntentNotify:   true,
	IntentSync:     true,
	IntentPlan:     true,
	IntentAgree:    true,
	IntentDisagree: true,
	IntentReflect:  true,
}

// Valid reports whether t is one of the ten enumerated intent types.
func (t IntentType) Valid() bool { return validIntentTypes[t] }

// Consent names a sharing scope for an envelope's policy.
type Consent string

const (
	ConsentPrivate Consent = "private"
	ConsentTeam    Consent = "team"
	ConsentPublic  Consent = "public"
)

var validConsents = map[Consent]bool{
	ConsentPrivate: true,
	ConsentTeam:    true,
	ConsentPublic:  true,
}

// Valid reports whether c is one of the three enumerated consent levels.
func (c Consent) Valid() bool { return validConsents[c] }

// SchemaVersion is the only version of LCE this runtime understands.
const SchemaVersion = 1

// Intent is the required {type, goal?} block of an envelope.
type Intent struct {
	Type IntentType `json:"type"`
	Goal string     `json:"goal,omitempty"`
}

// Affect is the optional {pad?, tags?} block.
type Affect struct {
	PAD  *[3]float64 `json:"pad,omitempty"`
	Tags []string    `json:"tags,omitempty"`
}

// Meaning is the optional {topic?, ontology?} block.
type Meaning struct {
	Topic    string `json:"topic,omitempty"`
	Ontology string `json:"ontology,omitempty"`
}

// Trust is the optional {proof?, attest?} block.
type Trust struct {
	Proof  string   `json:"proof,omitempty"`
	Attest []string `json:"attest,omitempty"`
}

// Memory is the optional {thread?, t?, ttl?} block. t and ttl are carried
// as opaque ISO-8601 strings; this runtime does not parse or enforce them
// beyond the string-type check the soft validator performs elsewhere.
type Memory struct {
	Thread string `json:"thread,omitempty"`
	T      string `json:"t,omitempty"`
	TTL    string `json:"ttl,omitempty"`
}

// Policy is the required {consent, share?, dp?} block.
type Policy struct {
	Consent Consent  `json:"consent"`
	Share   []string `json:"share,omitempty"`
	DP      string   `json:"dp,omitempty"`
}

// QoS is the optional {coherence?, stability?} block.
type QoS struct {
	Coherence *float64 `json:"coherence,omitempty"`
	Stability *float64 `json:"stability,omitempty"`
}

// Trace is the optional {hop?, provenance?} block.
type Trace struct {
	Hop        *int   `json:"hop,omitempty"`
	Provenance string `json:"provenance,omitempty"`
}

// Envelope is the LCE wire payload. Fields are pointers where "absent" and
// "zero value" must be distinguishable, matching the JSON omission rule in
// spec §4.C (the wire form omits absent-optional fields).
type Envelope struct {
	V       int      `json:"v"`
	Intent  Intent   `json:"intent"`
	Affect  *Affect  `json:"affect,omitempty"`
	Meaning *Meaning `json:"meaning,omitempty"`
	Trust   *Trust   `json:"trust,omitempty"`
	Memory  *Memory  `json:"memory,omitempty"`
	Policy  Policy   `json:"policy"`
	QoS     *QoS     `json:"qos,omitempty"`
	Trace   *Trace   `json:"trace,omitempty"`
	Sig     string   `json:"sig,omitempty"`
}
