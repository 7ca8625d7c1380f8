package tables

// These tables are in their own file because they are large, and because
// every number in here was found by staring at hex dumps rather than read
// from any format description.

import "drgedit/types"

// Class markers. Each one is the class's 16-byte identifier followed by an
// int32 3 and the first two bytes of "XP".
var ClassMarkers = [types.ClassCount][]byte{
	types.Engineer: {0x85, 0xEF, 0x62, 0x6C, 0x65, 0xF1, 0x02, 0x4A, 0x8D, 0xFE, 0xB5, 0xD0, 0xF3, 0x90, 0x9D, 0x2E, 0x03, 0x00, 0x00, 0x00, 0x58, 0x50},
	types.Scout:    {0x30, 0xD8, 0xEA, 0x17, 0xD8, 0xFB, 0xBA, 0x4C, 0x95, 0x30, 0x6D, 0xE9, 0x65, 0x5C, 0x2F, 0x8C, 0x03, 0x00, 0x00, 0x00, 0x58, 0x50},
	types.Driller:  {0x9E, 0xDD, 0x56, 0xF1, 0xEE, 0xBC, 0xC5, 0x48, 0x8D, 0x5B, 0x5E, 0x5B, 0x80, 0xB6, 0x2D, 0xB4, 0x03, 0x00, 0x00, 0x00, 0x58, 0x50},
	types.Gunner:   {0xAE, 0x56, 0xE1, 0x80, 0xFE, 0xC0, 0xC4, 0x4D, 0x96, 0xFA, 0x29, 0xC2, 0x83, 0x66, 0xB9, 0x7B, 0x03, 0x00, 0x00, 0x00, 0x58, 0x50},
}

// Property-name markers
var (
	MarkerCredits          = []byte("Credits")
	MarkerPerkPoints       = []byte("PerkPoints")
	MarkerResources        = []byte("OwnedResources")
	MarkerForged           = []byte("ForgedSchematics")
	MarkerOwned            = []byte("Owned")
	MarkerSchematicsEnd    = []byte("bFirstSchematicMessageShown")
	PropertyOwned          = "OwnedSchematics"
	PropertyArray          = "ArrayProperty"
	PropertyStruct         = "StructProperty"
	PropertyGuid           = "Guid"
	FStringLengthPrefixLen = 4
)

// Layout is every delta the decoder relies on, for one version of the save format.
type Layout struct {
	Version string

	XPDelta         int // class marker -> XP
	PromotionsDelta int // XP -> promotion count
	CreditsDelta    int // "Credits" -> credits
	PerkPointsDelta int // "PerkPoints" -> perk points

	ForgedArraySizeDelta  int // "ForgedSchematics" -> u64 array property size
	ForgedCountDelta      int // "ForgedSchematics" -> u32 count
	ForgedStructSizeDelta int // "ForgedSchematics" -> u64 inner struct size
	ForgedListDelta       int // "ForgedSchematics" -> first identifier

	UnforgedCountDelta int // "Owned" -> u32 count
	UnforgedListDelta  int // unforged count -> first identifier
}

// LayoutV1 matches every save observed so far.
var LayoutV1 = Layout{
	Version: "v1",

	XPDelta:         48,
	PromotionsDelta: 108,
	CreditsDelta:    33,
	PerkPointsDelta: 36,

	ForgedArraySizeDelta:  35,
	ForgedCountDelta:      63,
	ForgedStructSizeDelta: 107,
	ForgedListDelta:       141,

	UnforgedCountDelta: 62,
	UnforgedListDelta:  77,
}

var Layouts = map[string]Layout{
	LayoutV1.Version: LayoutV1,
}

// Resource is one entry of the resource table.
type Resource struct {
	Name string
	ID   types.Identifier
}

var (
	Bismor  = types.Identifier{0xAF, 0x0D, 0xC4, 0xFE, 0x83, 0x61, 0xBB, 0x48, 0xB3, 0x2C, 0x92, 0xCC, 0x97, 0xE2, 0x1D, 0xE7}
	Enor    = types.Identifier{0x48, 0x8D, 0x05, 0x14, 0x6F, 0x5F, 0x75, 0x4B, 0xA3, 0xD4, 0x61, 0x0D, 0x08, 0xC0, 0x60, 0x3E}
	Jadiz   = types.Identifier{0x22, 0xBC, 0x4F, 0x7D, 0x07, 0xD1, 0x3E, 0x43, 0xBF, 0xCA, 0x81, 0xBD, 0x9C, 0x14, 0xB1, 0xAF}
	Croppa  = types.Identifier{0x8A, 0xA7, 0xFB, 0x43, 0x29, 0x3A, 0x0B, 0x49, 0xB8, 0xBE, 0x42, 0xFF, 0xE0, 0x68, 0xA4, 0x4C}
	Magnite = types.Identifier{0xAA, 0xDE, 0xD8, 0x76, 0x6C, 0x22, 0x7D, 0x40, 0x80, 0x32, 0xAF, 0xD1, 0x8D, 0x63, 0x56, 0x1E}
	Umanite = types.Identifier{0x5F, 0x2B, 0xCF, 0x83, 0x47, 0x76, 0x0A, 0x42, 0xA2, 0x3B, 0x6E, 0xDC, 0x07, 0xC0, 0x94, 0x1D}

	Yeast  = types.Identifier{0x07, 0x85, 0x48, 0xB9, 0x32, 0x32, 0xC0, 0x40, 0x85, 0xF8, 0x92, 0xE0, 0x84, 0xA7, 0x41, 0x00}
	Starch = types.Identifier{0x72, 0x31, 0x22, 0x04, 0xE2, 0x87, 0xBC, 0x41, 0x81, 0x55, 0x40, 0xA0, 0xCF, 0x88, 0x12, 0x80}
	Barley = types.Identifier{0x22, 0xDA, 0xA7, 0x57, 0xAD, 0x7A, 0x80, 0x49, 0x89, 0x1B, 0x17, 0xED, 0xCC, 0x2F, 0xE0, 0x98}
	Malt   = types.Identifier{0x41, 0xEA, 0x55, 0x0C, 0x1D, 0x46, 0xC5, 0x4B, 0xBE, 0x2E, 0x9C, 0xA5, 0xA7, 0xAC, 0xCB, 0x06}

	ErrorCores = types.Identifier{0x58, 0x28, 0x65, 0x2C, 0x9A, 0x5D, 0xE8, 0x45, 0xA9, 0xE2, 0xE1, 0xB8, 0xB4, 0x63, 0xC5, 0x16}
	BlankCores = types.Identifier{0xA1, 0x0C, 0xB2, 0x85, 0x38, 0x71, 0xFB, 0x49, 0x9A, 0xC8, 0x54, 0xA1, 0xCD, 0xE2, 0x20, 0x2C}
)

var MineralResources = []Resource{
	{"bismor", Bismor},
	{"enor", Enor},
	{"jadiz", Jadiz},
	{"croppa", Croppa},
	{"magnite", Magnite},
	{"umanite", Umanite},
}

var BrewingResources = []Resource{
	{"yeast", Yeast},
	{"starch", Starch},
	{"barley", Barley},
	{"malt", Malt},
}

var CoreResources = []Resource{
	{"blank_cores", BlankCores},
	{"error_cores", ErrorCores},
}

// AllResources is minerals, brewing, then cores.
func AllResources() []Resource {
	out := make([]Resource, 0, len(MineralResources)+len(BrewingResources)+len(CoreResources))
	out = append(out, MineralResources...)
	out = append(out, BrewingResources...)
	return append(out, CoreResources...)
}
