package auto_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuto(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auto Suite")
}
