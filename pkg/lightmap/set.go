package lightmap

// Set holds one lightmap per polygon of every mesh in a scene, indexed by
// mesh then face. A Set belongs to a single render; the scene itself is never mutated.
type Set struct {
	maps  [][]*Lightmap
	res   int
	locks *shardLocks
}

// NewSet allocates lightmaps for meshes with the given face counts
func NewSet(faceCounts []int, resolution int) *Set {
	s := &Set{
		maps:  make([][]*Lightmap, len(faceCounts)),
		res:   resolution,
		locks: &shardLocks{},
	}
	slot := 0
	for m, n := range faceCounts {
		s.maps[m] = make([]*Lightmap, n)
		for f := 0; f < n; f++ {
			s.maps[m][f] = newLightmap(resolution, s.locks, slot*resolution*resolution)
			slot++
		}
	}
	return s
}

// Get returns the lightmap for a face, or nil if the indices are out of range
func (s *Set) Get(mesh, face int) *Lightmap {
	if mesh < 0 || mesh >= len(s.maps) || face < 0 || face >= len(s.maps[mesh]) {
		return nil
	}
	return s.maps[mesh][face]
}

// Resolution returns the side length shared by every map
func (s *Set) Resolution() int { return s.res }

// Len returns the number of lightmaps
func (s *Set) Len() int {
	n := 0
	for _, faces := range s.maps {
		n += len(faces)
	}
	return n
}

// PublishAll publishes every map
func (s *Set) PublishAll() {
	s.Each(func(_, _ int, lm *Lightmap) { lm.Publish() })
}

// Each visits every lightmap in mesh, face order
func (s *Set) Each(fn func(mesh, face int, lm *Lightmap)) {
	for m, faces := range s.maps {
		for f, lm := range faces {
			fn(m, f, lm)
		}
	}
}
