package main_test

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromFile("api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
	})

	It("is a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("documents the auth endpoints", func() {
		Expect(doc.Paths.Find("/auth/login")).NotTo(BeNil())
		Expect(doc.Paths.Find("/auth/refresh")).NotTo(BeNil())
		Expect(doc.Paths.Find("/auth/me")).NotTo(BeNil())
	})

	It("documents the admin surface", func() {
		for _, path := range []string{
			"/admin/permissions",
			"/admin/permissions/bulk",
			"/admin/permissions/import",
			"/admin/permissions/export",
			"/admin/groups",
			"/admin/groups/{id}/permissions/bulk",
			"/admin/users",
			"/admin/users/{id}/permissions",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), "missing path %s", path)
		}
	})

	It("documents the booking surface", func() {
		for _, path := range []string{
			"/hotels", "/rooms", "/guests", "/bookings", "/bookings/{id}/cancel",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), "missing path %s", path)
		}
	})
})
