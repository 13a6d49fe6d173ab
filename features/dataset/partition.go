package dataset

import (
	"math"
	"math/rand/v2"
	"sort"
)

// SplitAlgorithm names the family shuffle so a recorded corpus can be
// regenerated byte for byte. Bump the version if the procedure changes.
const SplitAlgorithm = "pcg-dxsm/fisher-yates/v2"

const pcgStream = 0x9e3779b97f4a7c15

// cutTolerance absorbs float error in ratio*n, so 0.29 of 100 families is 29.
const cutTolerance = 1e-9

type Partition struct {
	Train         []Sample
	Val           []Sample
	TrainFamilies []string
	ValFamilies   []string
}

// SplitByFamily assigns whole families to train or val. Family keys are
// sorted, shuffled with a PCG stream seeded by seed, and the first
// floor(ratio*n + 1e-9) keys go to train. No key ever lands in both splits.
func SplitByFamily(samples []Sample, familyKey func(Sample) string, ratio float64, seed uint64) Partition {
	families := make(map[string][]Sample)
	for _, s := range samples {
		k := familyKey(s)
		families[k] = append(families[k], s)
	}

	keys := make([]string, 0, len(families))
	for k := range families {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	shuffle(keys, seed)

	cut := int(math.Floor(ratio*float64(len(keys)) + cutTolerance))
	if cut < 0 {
		cut = 0
	}
	if cut > len(keys) {
		cut = len(keys)
	}

	p := Partition{
		TrainFamilies: keys[:cut:cut],
		ValFamilies:   keys[cut:],
	}
	for _, k := range p.TrainFamilies {
		p.Train = append(p.Train, families[k]...)
	}
	for _, k := range p.ValFamilies {
		p.Val = append(p.Val, families[k]...)
	}
	return p
}

func shuffle(keys []string, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, pcgStream))
	for i := len(keys) - 1; i > 0; i-- {
		j := int(rng.Uint64() % uint64(i+1))
		keys[i], keys[j] = keys[j], keys[i]
	}
}
