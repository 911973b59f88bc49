package fsops

// FakeDeleter implements Deleter for testing.
// It records every call and returns Err without touching the filesystem.
type FakeDeleter struct {
	Calls []string
	Err   error
}

func (f *FakeDeleter) RemoveAll(path string) error {
	f.Calls = append(f.Calls, path)
	return f.Err
}
