//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/coecms/clef --repository.default-branch master --repository.path /pkg/andfilter

package andfilter
