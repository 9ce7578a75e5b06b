package deepgram

import "github.com/attunelabs/attune/pkg/provider/tts"

// Voices is the Aura-2 voice catalogue. The recommended entries are voices
// curated for meditation narration (calm, smooth, soothing delivery).
var Voices = []tts.Voice{
	{ID: "aura-2-athena-en", Name: "Athena", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Calm, warm, wise", Recommended: true},
	{ID: "aura-2-pandora-en", Name: "Pandora", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Soft, gentle, soothing", Recommended: true},
	{ID: "aura-2-harmonia-en", Name: "Harmonia", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Balanced, peaceful, melodic", Recommended: true},
	{ID: "aura-2-cora-en", Name: "Cora", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Serene, steady, nurturing", Recommended: true},
	{ID: "aura-2-luna-en", Name: "Luna", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Ethereal, dreamy, soft", Recommended: true},
	{ID: "aura-2-pluto-en", Name: "Pluto", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Deep, grounding, calm", Recommended: true},
	{ID: "aura-2-odysseus-en", Name: "Odysseus", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Warm, reassuring, steady", Recommended: true},
	{ID: "aura-2-orion-en", Name: "Orion", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Smooth, composed, clear", Recommended: true},

	{ID: "aura-2-andromeda-en", Name: "Andromeda", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Bright, clear, engaging"},
	{ID: "aura-2-asteria-en", Name: "Asteria", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Lively, articulate, warm"},
	{ID: "aura-2-aurora-en", Name: "Aurora", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Fresh, upbeat, friendly"},
	{ID: "aura-2-callista-en", Name: "Callista", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Elegant, refined, poised"},
	{ID: "aura-2-calypso-en", Name: "Calypso", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Enchanting, expressive, rich"},
	{ID: "aura-2-cassandra-en", Name: "Cassandra", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Confident, insightful, clear"},
	{ID: "aura-2-circe-en", Name: "Circe", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Mysterious, captivating, deep"},
	{ID: "aura-2-daphne-en", Name: "Daphne", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Light, natural, flowing"},
	{ID: "aura-2-electra-en", Name: "Electra", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Energetic, bold, dynamic"},
	{ID: "aura-2-gaia-en", Name: "Gaia", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Earthy, grounded, maternal"},
	{ID: "aura-2-hera-en", Name: "Hera", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Authoritative, regal, commanding"},
	{ID: "aura-2-io-en", Name: "Io", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Youthful, curious, bright"},
	{ID: "aura-2-lyra-en", Name: "Lyra", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Musical, harmonious, sweet"},
	{ID: "aura-2-medusa-en", Name: "Medusa", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Intense, striking, powerful"},
	{ID: "aura-2-nova-en", Name: "Nova", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Modern, crisp, vibrant"},
	{ID: "aura-2-nyx-en", Name: "Nyx", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Dark, silky, mysterious"},
	{ID: "aura-2-ophelia-en", Name: "Ophelia", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Poetic, tender, delicate"},
	{ID: "aura-2-phoebe-en", Name: "Phoebe", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Radiant, cheerful, warm"},
	{ID: "aura-2-selene-en", Name: "Selene", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Mystical, tranquil, moonlit"},
	{ID: "aura-2-siren-en", Name: "Siren", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Alluring, smooth, deep"},
	{ID: "aura-2-thalia-en", Name: "Thalia", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Joyful, comedic, light"},
	{ID: "aura-2-venus-en", Name: "Venus", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Lovely, graceful, charming"},
	{ID: "aura-2-vesta-en", Name: "Vesta", Provider: "deepgram", Gender: "female", Accent: "American", Traits: "Steady, devoted, focused"},

	{ID: "aura-2-arcas-en", Name: "Arcas", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Bold, resonant, strong"},
	{ID: "aura-2-draco-en", Name: "Draco", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Commanding, sharp, powerful"},
	{ID: "aura-2-helios-en", Name: "Helios", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Bright, warm, radiant"},
	{ID: "aura-2-hermes-en", Name: "Hermes", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Quick, articulate, versatile"},
	{ID: "aura-2-hyperion-en", Name: "Hyperion", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Grand, expansive, deep"},
	{ID: "aura-2-janus-en", Name: "Janus", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Dual-toned, adaptable, thoughtful"},
	{ID: "aura-2-mars-en", Name: "Mars", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Strong, grounded, determined"},
	{ID: "aura-2-neptune-en", Name: "Neptune", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Flowing, deep, aquatic"},
	{ID: "aura-2-orpheus-en", Name: "Orpheus", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Musical, emotive, lyrical"},
	{ID: "aura-2-phoenix-en", Name: "Phoenix", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Rising, energetic, renewed"},
	{ID: "aura-2-prometheus-en", Name: "Prometheus", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Visionary, bold, innovative"},
	{ID: "aura-2-saturn-en", Name: "Saturn", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Measured, wise, patient"},
	{ID: "aura-2-titan-en", Name: "Titan", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Massive, powerful, commanding"},
	{ID: "aura-2-zeus-en", Name: "Zeus", Provider: "deepgram", Gender: "male", Accent: "American", Traits: "Authoritative, thunderous, regal"},
}

// knownModels is the allow-list checked before any request is sent.
var knownModels = func() map[string]bool {
	m := make(map[string]bool, len(Voices))
	for _, v := range Voices {
		m[v.ID] = true
	}
	return m
}()

// IsKnownModel reports whether voiceID is in the Aura-2 allow-list.
func IsKnownModel(voiceID string) bool { return knownModels[voiceID] }
