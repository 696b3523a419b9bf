package inject

import (
	"fmt"
	"sync"
)

// lifecycleManager holds what an injector tears down on destroy.
type lifecycleManager struct {
	mu          sync.Mutex
	disposables []Disposable
	hooks       []func()
	closed      bool
}

// track adds instance if it is Disposable. Instances built after run are
// closed immediately.
func (m *lifecycleManager) track(instance any) {
	d, ok := instance.(Disposable)
	if !ok {
		return
	}

	m.mu.Lock()
	if !m.closed {
		m.disposables = append(m.disposables, d)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	_ = closeDisposable(d)
}

// onDestroy reports false once run has started.
func (m *lifecycleManager) onDestroy(hook func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.hooks = append(m.hooks, hook)
	return true
}

// run closes disposables in reverse order, then runs hooks in insertion
// order. Every step runs even when earlier ones fail.
func (m *lifecycleManager) run() []error {
	m.mu.Lock()
	disposables := m.disposables
	hooks := m.hooks
	m.disposables = nil
	m.hooks = nil
	m.closed = true
	m.mu.Unlock()

	var errs []error

	for i := len(disposables) - 1; i >= 0; i-- {
		if err := closeDisposable(disposables[i]); err != nil {
			errs = append(errs, err)
		}
	}

	for i, hook := range hooks {
		if err := runHook(hook); err != nil {
			errs = append(errs, fmt.Errorf("destroy hook %d: %w", i, err))
		}
	}

	return errs
}

func closeDisposable(d Disposable) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("close %T panicked: %v", d, v)
		}
	}()

	if err := d.Close(); err != nil {
		return fmt.Errorf("close %T: %w", d, err)
	}
	return nil
}

func runHook(hook func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panicked: %v", v)
		}
	}()

	hook()
	return nil
}
