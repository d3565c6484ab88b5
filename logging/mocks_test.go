package logging

import (
	"bytes"
	"sync"
)

type mockLogFile struct {
	mux    sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (f *mockLogFile) Append(content []byte) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	_, err := f.buf.Write(content)
	return err
}

func (f *mockLogFile) Close() error {
	f.closed = true
	return nil
}

type mockLogFileSystem struct {
	dirs    []string
	file    *mockLogFile
	openErr error
}

func (fs *mockLogFileSystem) MkDir(name string) error {
	fs.dirs = append(fs.dirs, name)
	return nil
}

func (fs *mockLogFileSystem) Open(name string) (LogFile, error) {
	if fs.openErr != nil {
		return nil, fs.openErr
	}
	fs.file = &mockLogFile{}
	return fs.file, nil
}
