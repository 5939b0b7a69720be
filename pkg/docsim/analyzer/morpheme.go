package analyzer

// Part-of-speech categories of the IPA tag set that carry little standalone
// meaning.
const (
	POSParticle      = "助詞"
	POSAuxiliaryVerb = "助動詞"
)

// noValue is the placeholder IPA dictionaries use for an empty feature.
const noValue = "*"

const (
	fieldPOS      = 0
	fieldBaseForm = 6
)

// Morpheme is one analyzed unit of text.
type Morpheme struct {
	Surface  string
	POS      string
	BaseForm string
	HasBase  bool
}

// IsFunctionWord reports whether the morpheme is a particle or an auxiliary verb.
func (m Morpheme) IsFunctionWord() bool {
	return m.POS == POSParticle || m.POS == POSAuxiliaryVerb
}

// FromFeatures builds a Morpheme from an IPA-style feature vector. Unknown
// words carry shorter vectors; missing fields read as absent.
func FromFeatures(surface string, features []string) Morpheme {
	m := Morpheme{Surface: surface}
	if len(features) > fieldPOS && features[fieldPOS] != noValue {
		m.POS = features[fieldPOS]
	}
	if len(features) > fieldBaseForm {
		base := features[fieldBaseForm]
		if base != noValue && base != "" {
			m.BaseForm = base
			m.HasBase = true
		}
	}
	return m
}
