package inject

// Disposable is implemented by instances that hold resources. An injector
// closes every Disposable built by its own factory and class providers when
// it is destroyed, most recent first. Values registered with Value are owned
// by the caller and never closed.
//
// Example:
//
//	type DatabaseConnection struct {
//	    conn *sql.DB
//	}
//
//	func (dc *DatabaseConnection) Close() error {
//	    return dc.conn.Close()
//	}
type Disposable interface {
	Close() error
}
