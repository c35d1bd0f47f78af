package passthrough

import (
	"golang.org/x/sys/unix"
)

// ReadRange returns the bytes of the file at path in
// [offset, min(len, offset+size)). The file is opened fresh on every call,
// so the result reflects whatever is on disk at read time. An offset at or
// past the end yields an empty slice.
func ReadRange(path string, offset int64, size int) ([]byte, error) {
	if offset < 0 || size < 0 {
		return nil, unix.EINVAL
	}

	fd, err := openRetry(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, err
	}

	length := st.Size
	if offset >= length || size == 0 {
		return []byte{}, nil
	}
	end := offset + int64(size)
	if end > length {
		end = length
	}

	buf := make([]byte, end-offset)
	read := 0
	for read < len(buf) {
		n, err := unix.Pread(fd, buf[read:], offset+int64(read))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		read += n
	}

	logger.Trace("Read %d bytes of %q at %d", read, path, offset)
	return buf[:read], nil
}
