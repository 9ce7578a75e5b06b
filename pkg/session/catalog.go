package session

// SoundCategory groups ambient sounds for the picker UI.
type SoundCategory string

const (
	CategoryNature SoundCategory = "nature"
	CategoryMusic  SoundCategory = "music"
	CategoryTones  SoundCategory = "tones"
	CategoryNoise  SoundCategory = "noise"
)

// AmbientSound describes one entry in the bundled sound catalogue.
type AmbientSound struct {
	ID       string
	Name     string
	Category SoundCategory
	Filename string
	Loopable bool
}

// Sounds is the static catalogue of ambient sound beds bundled with the
// application. AmbientItem.SoundID values must reference an entry here.
var Sounds = []AmbientSound{
	{ID: "rain", Name: "Rain", Category: CategoryNature, Filename: "rain.wav", Loopable: true},
	{ID: "forest", Name: "Forest", Category: CategoryNature, Filename: "forest.wav", Loopable: true},
	{ID: "ocean", Name: "Ocean Waves", Category: CategoryNature, Filename: "ocean.wav", Loopable: true},
	{ID: "wind", Name: "Gentle Wind", Category: CategoryNature, Filename: "wind.wav", Loopable: true},
	{ID: "stream", Name: "Stream", Category: CategoryNature, Filename: "stream.wav", Loopable: true},
	{ID: "bowl", Name: "Singing Bowl", Category: CategoryTones, Filename: "bowl.wav", Loopable: false},
	{ID: "chimes", Name: "Wind Chimes", Category: CategoryTones, Filename: "chimes.wav", Loopable: true},
	{ID: "drone", Name: "Om Drone", Category: CategoryTones, Filename: "drone.wav", Loopable: true},
	{ID: "pink-noise", Name: "Pink Noise", Category: CategoryNoise, Filename: "pink-noise.wav", Loopable: true},
	{ID: "brown-noise", Name: "Brown Noise", Category: CategoryNoise, Filename: "brown-noise.wav", Loopable: true},
}

// SoundByID looks up a catalogue entry by its ID.
func SoundByID(id string) (AmbientSound, bool) {
	for _, s := range Sounds {
		if s.ID == id {
			return s, true
		}
	}
	return AmbientSound{}, false
}
