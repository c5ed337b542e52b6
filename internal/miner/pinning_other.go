//go:build !linux

package miner

// Thread pinning is only wired up on Linux; elsewhere it is a no-op.
func pinThread(int) error {
	return nil
}
