package image

import (
	"fmt"
	"strings"
)

// Modifier is a style keyword appended to the image prompt.
type Modifier string

type Category string

const (
	CategoryStyle   Category = "style"
	CategoryFormat  Category = "format"
	CategoryQuality Category = "quality"
	CategoryEffects Category = "effects"
)

const (
	Realism        Modifier = "Realism"
	Cinematic      Modifier = "cinematic"
	HighResolution Modifier = "high resolution"
	Realistic      Modifier = "realistic"
	Epic           Modifier = "epic"
)

// DefaultModifiers is the selection used when none is configured.
var DefaultModifiers = []Modifier{Realism, Cinematic, HighResolution, Realistic, Epic}

// Catalog lists every modifier the image prompt accepts. Some keywords
// belong to more than one category.
var Catalog = map[Category][]Modifier{
	CategoryStyle: {
		"Abstract", "Academic", "Action painting", "Aesthetic", "Angular", "Automatism",
		"Avant-garde", "Baroque", "Bauhaus", "Contemporary", "Cubism", "Cyberpunk",
		"Digital art", "photo", "vector art", "Expressionism", "Fantasy", "Impressionism",
		"kiyo-e", "Medieval", "Minimal", "Modern", "Pixel art", Realism, "sci-fi",
		"Surrealism", "synthwave", "3d-model", "analog-film", "anime", "comic-book",
		"enhance", "fantasy-art", "isometric", "line-art", "low-poly", "modeling-compound",
		"origami", "photographic", "tile-texture",
	},
	CategoryFormat: {
		"3D render", "Blender Model", "CGI rendering", Cinematic, "Detailed render",
		"oil painting", "unreal engine 5", "watercolor", "cartoon", "anime", "colored pencil",
	},
	CategoryQuality: {
		HighResolution, "high-detail", "low-poly", "photographic", "photorealistic", Realistic,
	},
	CategoryEffects: {
		"Beautiful lighting", "Cinematic lighting", "Dramatic", "dramatic lighting",
		"Dynamic lighting", Epic, "Portrait lighting", "Volumetric lighting",
	},
}

// ParseModifiers resolves configured names against the catalog, ignoring
// case. An empty list selects DefaultModifiers.
func ParseModifiers(names []string) ([]Modifier, error) {
	if len(names) == 0 {
		return append([]Modifier(nil), DefaultModifiers...), nil
	}

	known := make(map[string]Modifier)
	for _, modifiers := range Catalog {
		for _, m := range modifiers {
			known[strings.ToLower(string(m))] = m
		}
	}

	result := make([]Modifier, 0, len(names))
	for _, name := range names {
		m, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown image modifier %q", name)
		}
		result = append(result, m)
	}
	return result, nil
}

func joinModifiers(modifiers []Modifier) string {
	parts := make([]string, len(modifiers))
	for i, m := range modifiers {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}
