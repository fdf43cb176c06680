package util_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/netbirdio/updater/util"
)

var _ = Describe("Client", func() {

	var (
		tmpDir string
	)

	type TestConfig struct {
		SomeMap   map[string]string `json:"someMap" yaml:"someMap"`
		SomeArray []string          `json:"someArray" yaml:"someArray"`
		SomeField int               `json:"someField" yaml:"someField"`
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "updater_util_test_tmp_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.RemoveAll(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Config", func() {
		Context("in JSON format", func() {
			It("should be written and read successfully", func() {

				m := make(map[string]string)
				m["key1"] = "value1"
				m["key2"] = "value2"

				arr := []string{"value1", "value2"}

				written := &TestConfig{
					SomeMap:   m,
					SomeArray: arr,
					SomeField: 99,
				}

				err := util.WriteJson(context.Background(), tmpDir+"/testconfig.json", written)
				Expect(err).NotTo(HaveOccurred())

				read, err := util.ReadJson(tmpDir+"/testconfig.json", &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read).NotTo(BeNil())
				Expect(read.(*TestConfig).SomeMap["key1"]).To(BeEquivalentTo(written.SomeMap["key1"]))
				Expect(read.(*TestConfig).SomeMap["key2"]).To(BeEquivalentTo(written.SomeMap["key2"]))
				Expect(read.(*TestConfig).SomeArray).To(ContainElements(arr))
				Expect(read.(*TestConfig).SomeField).To(BeEquivalentTo(written.SomeField))

				entries, err := os.ReadDir(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})

			It("should not write when the context is already cancelled", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				err := util.WriteJson(ctx, tmpDir+"/cancelled.json", &TestConfig{})
				Expect(err).To(HaveOccurred())
				Expect(util.FileExists(tmpDir + "/cancelled.json")).To(BeFalse())
			})
		})

		Context("with environment substitution", func() {
			It("should substitute variables in JSON", func() {
				Expect(os.Setenv("UPDATER_TEST_FIELD", "42")).To(Succeed())
				defer os.Unsetenv("UPDATER_TEST_FIELD")

				file := filepath.Join(tmpDir, "env.json")
				Expect(os.WriteFile(file, []byte(`{"someField": {{ .UPDATER_TEST_FIELD }}}`), 0o600)).To(Succeed())

				read, err := util.ReadJsonWithEnvSub(file, &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read.(*TestConfig).SomeField).To(Equal(42))
			})

			It("should substitute variables in YAML", func() {
				Expect(os.Setenv("UPDATER_TEST_VALUE", "from-env")).To(Succeed())
				defer os.Unsetenv("UPDATER_TEST_VALUE")

				file := filepath.Join(tmpDir, "env.yaml")
				content := "someMap:\n  key: {{ .UPDATER_TEST_VALUE }}\nsomeField: 7\n"
				Expect(os.WriteFile(file, []byte(content), 0o600)).To(Succeed())

				read, err := util.ReadYamlWithEnvSub(file, &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read.(*TestConfig).SomeMap["key"]).To(Equal("from-env"))
				Expect(read.(*TestConfig).SomeField).To(Equal(7))
			})
		})
	})

	Describe("Removing JSON files", func() {
		It("should ignore missing files", func() {
			Expect(util.RemoveJson(filepath.Join(tmpDir, "missing.json"))).To(Succeed())
		})

		It("should remove existing files", func() {
			file := filepath.Join(tmpDir, "result.json")
			Expect(util.WriteJson(context.Background(), file, []string{"1"})).To(Succeed())
			Expect(util.RemoveJson(file)).To(Succeed())
			Expect(util.FileExists(file)).To(BeFalse())
		})
	})
})
