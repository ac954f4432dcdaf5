package stdlib

import "maps"

// Renames maps an import name to the distribution name pip installs it
// under, for the packages where the two differ. Keys are matched exactly:
// Python import names are case-sensitive.
type Renames map[string]string

var defaultRenames = Renames{
	"PIL":      "Pillow",
	"gi":       "PyGObject",
	"cv2":      "opencv-python",
	"sklearn":  "scikit-learn",
	"skimage":  "scikit-image",
	"yaml":     "PyYAML",
	"bs4":      "beautifulsoup4",
	"dateutil": "python-dateutil",
	"dotenv":   "python-dotenv",
	"jwt":      "PyJWT",
	"Crypto":   "pycryptodome",
	"OpenSSL":  "pyOpenSSL",
	"serial":   "pyserial",
	"magic":    "python-magic",
	"docx":     "python-docx",
	"pptx":     "python-pptx",
	"attr":     "attrs",
	"usb":      "pyusb",
	"zmq":      "pyzmq",
	"git":      "GitPython",
	"fitz":     "PyMuPDF",
	"win32api": "pywin32",
}

// DefaultRenames returns a fresh copy of the built-in rename table.
func DefaultRenames() Renames {
	return maps.Clone(defaultRenames)
}

// Lookup returns the install name for importName, falling back to the
// import name itself when no rename applies.
func (r Renames) Lookup(importName string) string {
	if name, ok := r[importName]; ok && name != "" {
		return name
	}
	return importName
}

// Merge returns a new table with extra layered over r.
func (r Renames) Merge(extra map[string]string) Renames {
	out := maps.Clone(r)
	if out == nil {
		out = make(Renames, len(extra))
	}
	maps.Copy(out, extra)
	return out
}
