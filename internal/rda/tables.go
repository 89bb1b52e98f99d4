package rda

// Term is an RDA vocabulary term paired with its MARC code.
type Term struct {
	Term string
	Code string
}

// Source vocabularies written to $2 of the 33X fields.
const (
	SourceContent = "rdacontent"
	SourceMedia   = "rdamedia"
	SourceCarrier = "rdacarrier"
)

// contentTypes maps leader/06 (type of record) to RDA content type.
var contentTypes = map[byte]Term{
	'a': {"text", "txt"},
	'c': {"tactile notated music", "tcm"},
	'd': {"tactile notated music", "tcm"},
	'e': {"cartographic three-dimensional form", "crf"},
	'f': {"cartographic three-dimensional form", "crf"},
	'g': {"two-dimensional moving image", "tdi"},
	'i': {"spoken word", "spw"},
	'j': {"performed music", "prm"},
	'k': {"tactile image", "tci"},
	'm': {"computer program", "cop"},
	'o': {"other", "xxx"},
	'p': {"other", "xxx"},
	'r': {"three-dimensional form", "tdf"},
	't': {"text", "txt"},
}

// mediaTypes maps 007/00 (category of material) to RDA media type.
var mediaTypes = map[byte]Term{
	'c': {"computer", "c"},
	'g': {"projected", "g"},
	'h': {"microform", "h"},
	'k': {"unmediated", "n"},
	'm': {"projected", "g"},
	's': {"audio", "s"},
	't': {"unmediated", "n"},
	'v': {"video", "v"},
	'z': {"other", "x"},
}

// carrierTypes maps 007/00 then 007/01 (specific material designation) to
// RDA carrier type.
var carrierTypes = map[byte]map[byte]Term{
	'c': {
		'a': {"computer tape cartridge", "ca"},
		'b': {"computer chip cartridge", "cb"},
		'd': {"computer disc", "cd"},
		'e': {"computer disc cartridge", "ce"},
		'f': {"computer tape cassette", "cf"},
		'h': {"computer tape reel", "ch"},
		'k': {"computer card", "ck"},
		'r': {"online resource", "cr"},
		'z': {"other", "cz"},
	},
	's': {
		'd': {"audio disc", "sd"},
		'e': {"audio cylinder", "se"},
		'g': {"audio cartridge", "sg"},
		'i': {"sound track reel", "si"},
		'q': {"audio roll", "sq"},
		's': {"audiocassette", "ss"},
		't': {"audiotape reel", "st"},
		'z': {"other", "sz"},
	},
}

// ContentType looks up the content type for a leader/06 code.
func ContentType(recordType byte) (Term, bool) {
	t, ok := contentTypes[recordType]
	return t, ok
}

// MediaType looks up the media type for a 007/00 code.
func MediaType(category byte) (Term, bool) {
	t, ok := mediaTypes[category]
	return t, ok
}

// CarrierType looks up the carrier type for a 007/00 and 007/01 pair.
func CarrierType(category, designation byte) (Term, bool) {
	t, ok := carrierTypes[category][designation]
	return t, ok
}
