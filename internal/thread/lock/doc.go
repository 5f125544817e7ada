// Package lock implements the runtime's mutual-exclusion primitives:
// Lock, a non-owning binary mutex, and RLock, an owning reentrant mutex.
//
// # Lock
//
// Lock is the primitive handed out by allocate_lock. It has no notion of
// an owning thread: any thread may release it, which is what higher-level
// condition and event constructs rely on. The authoritative blocking state
// is a capacity-1 channel standing in for the OS mutex; the Locked flag is
// advisory bookkeeping used for sanity checks (double release) and for the
// sentinel pattern.
//
// # RLock
//
// RLock tracks an owner and a recursion count. The owning thread may
// acquire it repeatedly; each acquire must be matched by a release. The
// owner field is read with atomics because any thread may ask "who owns
// this?" while the owner is acquiring or releasing. SaveState and
// RestoreState transfer the (count, owner) bookkeeping in and out, so a
// condition variable can drop full ownership while waiting and restore it
// afterwards.
//
// # Blocking and interruption
//
// A blocking acquire with a timeout returns within a bounded interval of
// the deadline. A blocking acquire on the primary thread is additionally
// interruptible: if an interrupt is posted before the lock is taken, the
// acquire fails with ErrInterrupted, distinct from the timeout result, and
// the lock is left untouched. RestoreState blocks without being
// interruptible: restoring partially would corrupt the reentrancy
// bookkeeping.
package lock
