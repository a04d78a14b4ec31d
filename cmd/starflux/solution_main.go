package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/solution"
)

// runSolution prints the occultation solution vector for one geometry.
func runSolution(cmd *cobra.Command, args []string) error {
	b, _ := cmd.Flags().GetFloat64("b")
	r, _ := cmd.Flags().GetFloat64("r")
	lmax, _ := cmd.Flags().GetInt("lmax")
	order, _ := cmd.Flags().GetInt("order")
	asJSON, _ := cmd.Flags().GetBool("json")

	if b < 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return fmt.Errorf("impact parameter %g must be finite and non-negative", b)
	}
	if r <= 0 || math.IsInf(r, 0) {
		return fmt.Errorf("occultor radius %g must be positive and finite", r)
	}
	if lmax < 0 || lmax > 20 {
		return fmt.Errorf("lmax %d outside [0, 20]", lmax)
	}
	if order == 0 {
		order = solution.DefaultOrder
	}
	if order < 2 || order > 200 {
		return fmt.Errorf("quadrature order %d outside [2, 200]", order)
	}

	s := solution.Vector(lmax, b, r, order)
	rt := solution.RT(lmax)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"b":     b,
			"r":     r,
			"lmax":  lmax,
			"order": order,
			"s":     s,
			"rt":    rt,
		})
	}

	fmt.Printf("Occultation solution for b=%g, r=%g (lmax=%d, order=%d)\n\n", b, r, lmax, order)
	fmt.Printf("%4s %4s %4s %16s %16s\n", "n", "l", "m", "s[n]", "rT[n]")
	for n := range s {
		l, m := basis.LM(n)
		fmt.Printf("%4d %4d %4d %16.10f %16.10f\n", n, l, m, s[n], rt[n])
	}

	return nil
}
