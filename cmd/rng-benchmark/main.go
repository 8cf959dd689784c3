// Command rng-benchmark reports the cost of the random stream operations and of one
// simulation tick at the default parameters.
package main

import (
	"fmt"
	"testing"

	"github.com/lixenwraith/nasch/config"
	"github.com/lixenwraith/nasch/rng"
	"github.com/lixenwraith/nasch/road"
)

func main() {
	const n = 100

	p := config.Default()
	rules := p.Rules()

	benchmarks := []struct {
		name  string
		calls int
		fn    func(b *testing.B)
	}{
		{"Stream.Next", n, func(b *testing.B) {
			r := rng.New(12345)
			for b.Loop() {
				for i := 0; i < n; i++ {
					_ = r.Next()
				}
			}
		}},
		{"Stream.Float", n, func(b *testing.B) {
			r := rng.New(12345)
			for b.Loop() {
				for i := 0; i < n; i++ {
					_ = r.Float()
				}
			}
		}},
		{"Stream.Int(999)", n, func(b *testing.B) {
			r := rng.New(12345)
			for b.Loop() {
				for i := 0; i < n; i++ {
					_, _ = r.Int(999)
				}
			}
		}},
		{"Stream.Skip(1e9)", 1, func(b *testing.B) {
			r := rng.New(12345)
			for b.Loop() {
				r.Skip(1_000_000_000)
			}
		}},
		{fmt.Sprintf("road.Step L=%d N=%d", p.L, p.N), 1, func(b *testing.B) {
			r := rng.New(p.Seed)
			s, err := road.NewState(p.N, rules, r)
			if err != nil {
				b.Fatal(err)
			}
			for b.Loop() {
				road.Step(s, rules, r)
			}
		}},
	}

	fmt.Printf("%-40s %12s %12s\n", "Name", "ns/op", "ns/call")
	fmt.Println("--------------------------------------------------------------")

	for _, bm := range benchmarks {
		result := testing.Benchmark(bm.fn)
		nsPerOp := float64(result.T.Nanoseconds()) / float64(result.N)
		fmt.Printf("%-40s %10.1f ns %9.2f ns\n", bm.name, nsPerOp, nsPerOp/float64(bm.calls))
	}

	// Skip must land where stepping lands
	stepped, skipped := rng.New(42), rng.New(42)
	for i := 0; i < 10000; i++ {
		stepped.Next()
	}
	skipped.Skip(10000)
	fmt.Printf("\nSkip(10000) from seed 42: stepped %d, skipped %d\n", stepped.State(), skipped.State())
}
