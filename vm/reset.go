package vm

import "math/rand"

// Restart implements spec.md section 4.2.6's "Restart" reset mode: PC goes
// back to the last-loaded image's origin, but memory and PSR are left exactly
// as the program last left them. Grounded on CPU.ResetDefaults's narrower
// "Reload" sibling below, which this intentionally does not call.
func (vm *VM) Restart() {
	vm.CPU.PC = vm.LastOrigin
}

// ResetMemory implements spec.md section 4.2.6's "Reset memory" mode: zero
// every word, then reload the built-in OS region so trap/interrupt vectors
// keep working.
func (vm *VM) ResetMemory() {
	vm.Mem.Reset()
	LoadBuiltinOS(vm.Mem)
}

// RandomizeMemory implements spec.md section 4.2.6's "Randomise memory" mode:
// fill every word with a uniformly random 16-bit value, then reload the
// built-in OS region over it. Uses math/rand rather than crypto/rand since
// this is simulator noise, not a security-sensitive value.
func (vm *VM) RandomizeMemory() {
	for i := range vm.Mem.Words {
		vm.Mem.Words[i] = uint16(rand.Uint32()) // #nosec G404 -- pseudo-random fill for emulator memory, not crypto
	}
	LoadBuiltinOS(vm.Mem)
}
