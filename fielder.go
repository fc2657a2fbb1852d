package main

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
)

// spices is a list of common spices, used as service names
var spices = []string{
	"allspice", "anise", "basil", "bay", "black pepper", "cardamom", "cayenne",
	"cinnamon", "cloves", "coriander", "cumin", "curry", "dill", "fennel", "fenugreek",
	"garlic", "ginger", "marjoram", "mustard", "nutmeg", "oregano", "paprika", "parsley",
	"pepper", "rosemary", "saffron", "sage", "salt", "tarragon", "thyme", "turmeric", "vanilla",
	"caraway", "chili", "masala", "lemongrass", "mint", "poppy", "sesame", "sumac", "mace",
	"nigella", "peppercorn", "wasabi",
}

// adjectives is a list of common adjectives
var adjectives = []string{
	"able", "bad", "best", "better", "big", "black", "certain", "clear", "different", "early",
	"easy", "economic", "federal", "free", "full", "good", "great", "hard", "high", "human",
	"important", "international", "large", "late", "little", "local", "long", "low", "major",
	"military", "national", "new", "old", "only", "other", "political", "possible", "public",
	"real", "recent", "right", "small", "social", "special", "strong", "sure", "true", "white",
	"whole", "young",
}

// nouns is a list of common nouns
var nouns = []string{
	"angle", "ant", "apple", "arch", "arm", "army", "baby", "bag", "ball", "band", "basin", "basket", "bath", "bed", "bee", "bell",
	"berry", "bird", "blade", "board", "boat", "bone", "book", "boot", "bottle", "box", "boy", "brain", "brake", "branch", "brick", "bridge",
	"brush", "bucket", "bulb", "button", "cake", "camera", "card", "carriage", "cart", "cat", "chain", "cheese", "chess", "chin", "church", "circle",
	"clock", "cloud", "coat", "collar", "comb", "cord", "cow", "cup", "curtain", "cushion", "dog", "door", "drain", "drawer", "dress", "drop",
	"ear", "egg", "engine", "eye", "face", "farm", "feather", "finger", "fish", "flag", "floor", "fly", "foot", "fork", "fowl", "frame",
	"garden", "girl", "glove", "goat", "gun", "hair", "hammer", "hand", "hat", "head", "heart", "hook", "horn", "horse", "hospital", "house",
	"island", "jewel", "kettle", "key", "knee", "knife", "knot", "leaf", "leg", "library", "line", "lip", "lock", "map", "match", "monkey",
	"moon", "mouth", "muscle", "nail", "neck", "needle", "nerve", "net", "nose", "nut", "office", "orange", "oven", "parcel", "pen", "pencil",
	"picture", "pig", "pin", "pipe", "plane", "plate", "plough", "pocket", "pot", "potato", "prison", "pump", "rail", "rat", "receipt", "ring",
	"rod", "roof", "root", "sail", "school", "scissors", "screw", "seed", "sheep", "shelf", "ship", "shirt", "shoe", "skin", "skirt", "snake",
	"sock", "spade", "sponge", "spoon", "spring", "square", "stamp", "star", "station", "stem", "stick", "stocking", "stomach", "store", "street", "sun",
	"table", "tail", "thread", "throat", "thumb", "ticket", "toe", "tongue", "tooth", "town", "train", "tray", "tree", "trousers", "umbrella", "wall",
	"watch", "wheel", "whip", "whistle", "window", "wing", "wire", "worm",
}

// verbs is a list of verbs used to build message text
var verbs = []string{
	"accepted", "acquired", "assigned", "built", "cached", "cleared", "committed", "compacted",
	"completed", "connected", "created", "deleted", "dispatched", "drained", "enqueued", "evicted",
	"expired", "fetched", "flushed", "indexed", "loaded", "merged", "opened", "parsed", "persisted",
	"processed", "published", "queued", "rebalanced", "received", "refreshed", "rejected",
	"released", "renewed", "replayed", "resolved", "retried", "rotated", "scheduled", "sent",
	"started", "stopped", "synced", "updated", "validated", "written",
}

// getProcessID returns the process ID
func getProcessID() int64 {
	return int64(os.Getpid())
}

func (r Rng) getValueGenerators() []func() any {
	return []func() any{
		func() any { return r.Intn(100) },
		func() any { return r.BoolWithProb(99) },
		func() any { return r.BoolWithProb(50) },
		func() any { return r.BoolWithProb(1) },
		func() any { return r.Int(-100, 100) },
		func() any { return r.Float(0, 1000) },
		func() any { return r.Float(0, 1) },
		func() any { return r.GaussianInt(50, 30) },
		func() any { return r.Gaussian(10000, 1000) },
		func() any { return r.Gaussian(500, 300) },
		func() any { return r.String(2) },
		func() any { return r.String(5) },
		func() any { return r.String(10) },
		func() any { return r.String(4) + "-" + r.HexString(8) + "-" + r.String(4) },
		func() any { return r.HexString(16) },
	}
}

// parseUserFields expects a list of fields in the form of name=constant or name=/gen.
// The generator syntax is documented in the usage text in main.go.
func parseUserFields(rng Rng, userfields map[string]string) (map[string]func() any, error) {
	genpat := regexp.MustCompile(`^/([ibfs][wxrg]?)([0-9.-]+)?(,[0-9.-]+)?$`)
	// groups                        1            2          3
	fields := make(map[string]func() any)
	for name, value := range userfields {
		// anything not starting with / is a constant
		matches := genpat.FindStringSubmatch(value)
		if matches == nil {
			fields[name] = getConst(value)
			continue
		}
		var err error
		gentype := matches[1]
		p1 := matches[2]
		p2 := matches[3]
		switch gentype {
		case "i", "ir", "ig":
			fields[name], err = getIntGen(rng, gentype, p1, p2)
			if err != nil {
				return nil, fmt.Errorf("invalid int in user field %s: %w", name, err)
			}
		case "f", "fr", "fg":
			fields[name], err = getFloatGen(rng, gentype, p1, p2)
			if err != nil {
				return nil, fmt.Errorf("invalid float in user field %s: %w", name, err)
			}
		case "b":
			n := 50
			if p1 != "" {
				n, err = strconv.Atoi(p1)
				if err != nil || n < 0 || n > 100 {
					return nil, fmt.Errorf("invalid bool option in field %s", name)
				}
			}
			fields[name] = func() any { return rng.BoolWithProb(n) }
		case "s", "sw", "sx":
			n := 16
			if p1 != "" {
				n, err = strconv.Atoi(p1)
				if err != nil {
					return nil, fmt.Errorf("invalid string option in field %s", name)
				}
			}
			switch gentype {
			case "sw":
				words := make([]string, n)
				for i := 0; i < n; i++ {
					words[i] = rng.WordPair()
				}
				fields[name] = func() any { return rng.Choice(words) }
			case "sx":
				fields[name] = func() any { return rng.HexString(n) }
			default:
				fields[name] = func() any { return rng.String(n) }
			}
		default:
			return nil, fmt.Errorf("invalid generator type %s in field %s", gentype, name)
		}
	}
	return fields, nil
}

func getConst(value string) func() any {
	var gen func() any
	if value == "true" {
		gen = func() any { return true }
	} else if value == "false" {
		gen = func() any { return false }
	} else {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			gen = func() any { return i }
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			gen = func() any { return f }
		} else {
			gen = func() any { return value }
		}
	}
	return gen
}

func gaussianDefaults(v1, v2 float64) (float64, float64) {
	if v1 == 0 && v2 == 0 {
		v1 = 100
		v2 = 10
	} else if v2 == 0 {
		v2 = v1 / 10
	}
	return v1, v2
}

func getIntGen(rng Rng, gentype, p1, p2 string) (func() any, error) {
	var v1, v2 int
	var err error
	if p1 == "" {
		v1 = 0
	} else {
		v1, err = strconv.Atoi(p1)
		if err != nil {
			return nil, fmt.Errorf("%s is not an int", p1)
		}
	}
	if p2 == "" || p2 == "," {
		v2 = v1
		v1 = 0
	} else {
		v2, err = strconv.Atoi(p2[1:])
		if err != nil {
			return nil, fmt.Errorf("%s is not an int", p2[1:])
		}
	}
	if gentype == "ig" {
		g1, g2 := gaussianDefaults(float64(v1), float64(v2))
		return func() any { return rng.GaussianInt(g1, g2) }, nil
	}
	if v1 == 0 && v2 == 0 {
		v2 = 100
	}
	if v2 < v1 {
		return nil, fmt.Errorf("range %d,%d is inverted", v1, v2)
	}
	return func() any { return rng.Int(v1, v2) }, nil
}

func getFloatGen(rng Rng, gentype, p1, p2 string) (func() any, error) {
	var v1, v2 float64
	var err error
	if p1 == "" {
		v1 = 0
	} else {
		v1, err = strconv.ParseFloat(p1, 64)
		if err != nil {
			return nil, fmt.Errorf("%s is not a float64", p1)
		}
	}
	if p2 == "" || p2 == "," {
		v2 = v1
		v1 = 0
	} else {
		v2, err = strconv.ParseFloat(p2[1:], 64)
		if err != nil {
			return nil, fmt.Errorf("%s is not a float64", p2[1:])
		}
	}
	if gentype == "fg" {
		g1, g2 := gaussianDefaults(v1, v2)
		return func() any { return rng.Gaussian(g1, g2) }, nil
	}
	if v1 == 0 && v2 == 0 {
		v2 = 100
	}
	if v2 < v1 {
		return nil, fmt.Errorf("range %g,%g is inverted", v1, v2)
	}
	return func() any { return rng.Float(v1, v2) }, nil
}

// A Fielder generates the payload of synthetic log entries. The same seed
// always produces the same field names, service names, and value streams, so
// two runs with the same seed emit identical payloads. User fields are either
// constants or generator expressions starting with /; extra fields get
// randomly chosen names and value generators.
type Fielder struct {
	rng      Rng
	fields   map[string]func() any
	names    []string
	services []string
}

func NewFielder(seed string, userFields map[string]string, nextras, nservices int) (*Fielder, error) {
	rng := NewRng(seed)
	gens := rng.getValueGenerators()
	fields, err := parseUserFields(rng, userFields)
	if err != nil {
		return nil, err
	}
	for i := 0; i < nextras; i++ {
		fieldname := rng.WordPair()
		fields[fieldname] = gens[rng.Intn(len(gens))]
	}
	fields["process_id"] = func() any { return getProcessID() }

	// generators draw from the shared rng, so evaluation order must be
	// fixed for a seed to reproduce the same payloads
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make([]string, nservices)
	for i := 0; i < nservices; i++ {
		services[i] = rng.Choice(spices)
	}
	return &Fielder{rng: rng, fields: fields, names: names, services: services}, nil
}

func (f *Fielder) GetServiceName(n int) string {
	return f.services[n%len(f.services)]
}

// GetLevel returns a severity with a production-like skew:
// mostly INFO, some DEBUG and WARN, few ERRORs.
func (f *Fielder) GetLevel() string {
	n := f.rng.Int(0, 100)
	switch {
	case n < 60:
		return "INFO"
	case n < 80:
		return "DEBUG"
	case n < 95:
		return "WARN"
	default:
		return "ERROR"
	}
}

func (f *Fielder) GetMessage() string {
	return fmt.Sprintf("%s %s %s", f.rng.Choice(nouns), f.rng.Choice(verbs), f.rng.HexString(8))
}

func (f *Fielder) GetFields(seq uint64) map[string]any {
	fields := make(map[string]any, len(f.names)+1)
	fields["seq"] = seq
	for _, name := range f.names {
		fields[name] = f.fields[name]()
	}
	return fields
}
