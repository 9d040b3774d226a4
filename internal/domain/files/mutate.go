package files

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// CreateDirectory creates path. Without parents the parent directory must
// already exist.
func (s *Service) CreateDirectory(ctx context.Context, call access.Call, path string, parents bool) (err error) {
	var r access.ResolvedPath
	defer func() { s.record(ctx, call, path, r.Canonical, "", err) }()

	r, err = s.validator.ValidateEntry(ctx, call, path)
	if err != nil {
		return err
	}
	if err := s.checkAbsent(call, r); err != nil {
		return err
	}

	if parents {
		if err := os.MkdirAll(r.Entry, dirPerm); err != nil {
			return s.ioError(call, path, err)
		}
		return nil
	}
	if err := s.requireParent(call, r); err != nil {
		return err
	}
	if err := os.Mkdir(r.Entry, dirPerm); err != nil {
		return s.ioError(call, path, err)
	}
	return nil
}

// CreateFile creates a new file holding content. It never overwrites.
// Content must be text: a NUL byte would make the file read back as binary.
func (s *Service) CreateFile(ctx context.Context, call access.Call, path, content string, parents bool) (err error) {
	var r access.ResolvedPath
	defer func() { s.record(ctx, call, path, r.Canonical, "", err) }()

	r, err = s.validator.ValidateEntry(ctx, call, path)
	if err != nil {
		return err
	}
	if strings.IndexByte(content, 0) >= 0 {
		return access.InvalidArgument(call.Operation, path, "content must not contain NUL bytes")
	}
	if err := s.policy.CheckWritable(ctx, call, r, int64(len(content))); err != nil {
		return err
	}
	if err := s.checkAbsent(call, r); err != nil {
		return err
	}

	if parents {
		if err := os.MkdirAll(filepath.Dir(r.Entry), dirPerm); err != nil {
			return s.ioError(call, path, err)
		}
	} else if err := s.requireParent(call, r); err != nil {
		return err
	}

	f, err := access.CreateExclusive(r.Entry, filePerm)
	if err != nil {
		return s.ioError(call, path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(r.Entry)
		return s.ioError(call, path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(r.Entry)
		return s.ioError(call, path, err)
	}
	return nil
}

// MoveFile renames a regular file or a symlink. A symlink is moved itself,
// never its target. The destination must not exist.
func (s *Service) MoveFile(ctx context.Context, call access.Call, source, destination string) error {
	return s.move(ctx, call, source, destination, false)
}

// MoveDirectory renames a directory. Allowed roots cannot be moved and the
// destination must not exist.
func (s *Service) MoveDirectory(ctx context.Context, call access.Call, source, destination string) error {
	return s.move(ctx, call, source, destination, true)
}

func (s *Service) move(ctx context.Context, call access.Call, source, destination string, isDir bool) (err error) {
	var src, dst access.ResolvedPath
	defer func() { s.record(ctx, call, source, src.Canonical, dst.Canonical, err) }()

	src, err = s.validator.ValidateEntry(ctx, call, source)
	if err != nil {
		return err
	}
	dst, err = s.validator.ValidateEntry(ctx, call, destination)
	if err != nil {
		return err
	}

	if isDir {
		if err := s.lstatDir(call, src); err != nil {
			return err
		}
		if err := s.policy.CheckNotRoot(ctx, call, src); err != nil {
			return err
		}
		if dst.Entry == src.Entry || withinDir(src.Entry, dst.Entry) {
			return access.InvalidArgument(call.Operation, source, "destination is inside the source directory")
		}
	} else if err := s.lstatFile(call, src); err != nil {
		return err
	}

	if err := s.policy.CheckDestination(ctx, call, dst, isDir); err != nil {
		return err
	}
	if err := s.checkAbsent(call, dst); err != nil {
		return err
	}
	if err := s.requireParent(call, dst); err != nil {
		return err
	}

	if src, err = s.revalidate(ctx, call, src); err != nil {
		return err
	}
	if dst, err = s.revalidate(ctx, call, dst); err != nil {
		return err
	}
	if err := renameNoReplace(src.Entry, dst.Entry); err != nil {
		return s.ioError(call, destination, err)
	}
	return nil
}

// CheckDeletable fails with DeleteDisabled when deletes are off. Transports
// call it before decoding any other parameter so the flag takes precedence
// over malformed input.
func (s *Service) CheckDeletable(ctx context.Context, call access.Call, requested string) error {
	return s.policy.CheckDeletable(ctx, call, requested)
}

// DeleteFile removes a regular file or a symlink, dangling or not. A symlink
// is removed itself, never its target. The delete flag is checked before
// the path is looked at.
func (s *Service) DeleteFile(ctx context.Context, call access.Call, path string) (err error) {
	var r access.ResolvedPath
	defer func() { s.record(ctx, call, path, r.Canonical, "", err) }()

	if err := s.policy.CheckDeletable(ctx, call, path); err != nil {
		return err
	}
	r, err = s.validator.ValidateEntry(ctx, call, path)
	if err != nil {
		return err
	}
	if err := s.lstatFile(call, r); err != nil {
		return err
	}

	if r, err = s.revalidate(ctx, call, r); err != nil {
		return err
	}
	if err := os.Remove(r.Entry); err != nil {
		return s.ioError(call, path, err)
	}
	return nil
}

// DeleteDirectory removes a directory. Without recursive the directory must
// be empty. A symlink to a directory is a type mismatch; delete_file removes
// the link.
func (s *Service) DeleteDirectory(ctx context.Context, call access.Call, path string, recursive bool) (err error) {
	var r access.ResolvedPath
	defer func() { s.record(ctx, call, path, r.Canonical, "", err) }()

	if err := s.policy.CheckDeletable(ctx, call, path); err != nil {
		return err
	}
	r, err = s.validator.ValidateEntry(ctx, call, path)
	if err != nil {
		return err
	}
	if err := s.lstatDir(call, r); err != nil {
		return err
	}
	if err := s.policy.CheckNotRoot(ctx, call, r); err != nil {
		return err
	}

	if r, err = s.revalidate(ctx, call, r); err != nil {
		return err
	}
	if recursive {
		err = os.RemoveAll(r.Entry)
	} else {
		err = removeEmptyDir(r.Entry)
	}
	if err != nil {
		return s.ioError(call, path, err)
	}
	return nil
}

// checkAbsent fails with DestinationExists when anything, including a
// dangling symlink, already exists at r.
func (s *Service) checkAbsent(call access.Call, r access.ResolvedPath) error {
	found, err := exists(r.Entry)
	if err != nil {
		return s.ioError(call, r.Requested, err)
	}
	if found {
		return access.NewError(access.KindDestinationExists, call.Operation, r.Requested)
	}
	return nil
}

// requireParent fails with NotFound when the parent directory of r is
// missing.
func (s *Service) requireParent(call access.Call, r access.ResolvedPath) error {
	info, err := os.Stat(filepath.Dir(r.Entry))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(call, r.Requested)
		}
		return s.ioError(call, r.Requested, err)
	}
	if !info.IsDir() {
		return access.NewError(access.KindUnresolvableParent, call.Operation, r.Requested)
	}
	return nil
}

// lstatFile requires the entry at r to be a regular file or a symlink.
func (s *Service) lstatFile(call access.Call, r access.ResolvedPath) error {
	info, err := os.Lstat(r.Entry)
	if err != nil {
		return s.ioError(call, r.Requested, err)
	}
	if !info.Mode().IsRegular() && info.Mode()&fs.ModeSymlink == 0 {
		return access.NewError(access.KindTypeMismatch, call.Operation, r.Requested)
	}
	return nil
}

// lstatDir requires the entry at r to be a directory, not a link to one.
func (s *Service) lstatDir(call access.Call, r access.ResolvedPath) error {
	info, err := os.Lstat(r.Entry)
	if err != nil {
		return s.ioError(call, r.Requested, err)
	}
	if !info.IsDir() {
		return access.NewError(access.KindTypeMismatch, call.Operation, r.Requested)
	}
	return nil
}

// withinDir reports whether path is strictly below dir.
func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
