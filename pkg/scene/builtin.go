package scene

import (
	"fmt"
	"sort"
)

var builtins = map[string]func() *Scene{
	"room":  NewRoomScene,
	"glass": NewGlassScene,
	"plane": NewPlaneScene,
}

// Create builds a built-in scene by name
func Create(name string) (*Scene, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, Names())
	}
	return build(), nil
}

// Names lists the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
