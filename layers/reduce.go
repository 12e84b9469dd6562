package layers

// MaybeReduce merges the oldest unarchived layers once enough have piled up.
// Reduction keeps memory bounded on long runs at the cost of time resolution
// in the deep section. It reports whether a merge happened.
func (s *Stack) MaybeReduce() bool {
	if s.ReduceEvery <= 0 || s.ReduceMerge <= 1 {
		return false
	}
	if s.NLayers()-s.Narchived < s.ReduceEvery {
		return false
	}
	stop := s.Narchived + s.ReduceMerge
	if stop > s.NLayers() {
		stop = s.NLayers()
	}
	s.reduce(s.Narchived, stop)
	s.Narchived++
	return true
}

// reduce collapses rows [start,stop) into a single row. Thickness and t0
// sum; age keeps the youngest; water depth, porosity and sand fraction
// average thickness-weighted where section exists, plain where it does not.
func (s *Stack) reduce(start, stop int) {
	if stop-start < 2 {
		return
	}
	n := stop - start
	for c := 0; c < s.Nc; c++ {
		var dz, t0, age, wdz, wphi, wfs, hw, phi, fs float64
		for l := start; l < stop; l++ {
			d := s.Dz[l][c]
			dz += d
			t0 += s.T0[l][c]
			if s.Age[l][c] > age {
				age = s.Age[l][c]
			}
			wdz += d * s.Hw[l][c]
			wphi += d * s.Phi[l][c]
			wfs += d * s.Fsand[l][c]
			hw += s.Hw[l][c]
			phi += s.Phi[l][c]
			fs += s.Fsand[l][c]
		}
		s.Dz[start][c] = dz
		s.T0[start][c] = t0
		s.Age[start][c] = age
		if dz > 0. {
			s.Hw[start][c] = wdz / dz
			s.Phi[start][c] = wphi / dz
			s.Fsand[start][c] = wfs / dz
		} else {
			s.Hw[start][c] = hw / float64(n)
			s.Phi[start][c] = phi / float64(n)
			s.Fsand[start][c] = fs / float64(n)
		}
	}
	s.Dz = append(s.Dz[:start+1], s.Dz[stop:]...)
	s.Age = append(s.Age[:start+1], s.Age[stop:]...)
	s.Hw = append(s.Hw[:start+1], s.Hw[stop:]...)
	s.T0 = append(s.T0[:start+1], s.T0[stop:]...)
	s.Phi = append(s.Phi[:start+1], s.Phi[stop:]...)
	s.Fsand = append(s.Fsand[:start+1], s.Fsand[stop:]...)
}
