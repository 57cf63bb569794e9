package noise_test

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"gers/internal/collections"
	"gers/internal/noise"
	"gers/internal/script"
)

func TestScriptNoise(t *testing.T) {
	vm := script.NewVM(script.Config{Loader: script.Builtins{
		collections.Module: collections.Source,
		noise.Module:       noise.Source,
	}})
	defer vm.Close()
	collections.Register(vm)
	noise.Register(vm)

	err := vm.Interpret("main", `
local noise = import("gers.noise")
local disc = noise.PoissonDisc.new(3, 10, 200, 100)
local samples = disc:generate()
components = samples:count()
found = 0
for x, y in noise.PoissonDisc.points(samples) do
  found = found + 1
end
local field = noise.ValueNoise.new(9)
v = field:sample(1.5, 2.5)
cells = field:fill(8, 4, 16):count()
local ok = pcall(function() noise.ValueNoise.new(1, 0, 0.5, 2) end)
rejected = not ok
`)
	if err != nil {
		t.Fatal(err)
	}
	num := func(name string) float64 {
		v, err := vm.Variable("main", name)
		if err != nil {
			t.Fatal(err)
		}
		return float64(v.(lua.LNumber))
	}
	if c := num("components"); c < 2 || num("found")*2 != c {
		t.Fatalf("components = %v, found = %v", c, num("found"))
	}
	if v := num("v"); v < 0 || v > 1 {
		t.Fatalf("sample = %v", v)
	}
	if num("cells") != 32 {
		t.Fatalf("cells = %v", num("cells"))
	}
	if v, _ := vm.Variable("main", "rejected"); v != lua.LTrue {
		t.Fatal("zero octaves accepted")
	}
}
