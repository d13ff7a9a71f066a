package dist

import (
	"errors"
	"fmt"
)

// ErrPublished is returned by every mutating operation on a distribution
// that has been sealed with Publish.
var ErrPublished = errors.New("dist: distribution is published and immutable")

// UnknownSymbolError reports a name that is not a defined member of the
// sub-package, regardless of any export manifest.
type UnknownSymbolError struct {
	SubPackage string
	Name       string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("dist: symbol %q is not defined in sub-package %q", e.Name, e.SubPackage)
}

// NotExportedError reports a name that exists as a member but is not part
// of the declared export manifest: a private detail used externally.
type NotExportedError struct {
	SubPackage string
	Name       string
}

func (e *NotExportedError) Error() string {
	return fmt.Sprintf("dist: symbol %q in sub-package %q is not exported", e.Name, e.SubPackage)
}

// UnknownSubPackageError reports an operation against a sub-package the
// distribution does not contain.
type UnknownSubPackageError struct {
	SubPackage string
}

func (e *UnknownSubPackageError) Error() string {
	return fmt.Sprintf("dist: unknown sub-package %q", e.SubPackage)
}
