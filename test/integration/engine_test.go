//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/identity"
	"github.com/eliteGoblin/focusd/tab_mon/internal/infra"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
	"github.com/eliteGoblin/focusd/tab_mon/internal/usecase"
	"github.com/eliteGoblin/focusd/tab_mon/test/fixtures"
)

type staticFrontmost struct{ name string }

func (s staticFrontmost) FrontmostApp(ctx context.Context) (string, error) {
	return s.name, nil
}

func newService(yabaiPath, orderFile string) (*usecase.TabService, *usecase.Reconciler) {
	logger := zap.NewNop()
	client := infra.NewYabaiClient(yabaiPath, nil, policy.NewRegistry().Matcher(), logger)
	reconciler := usecase.NewReconciler(infra.NewFileOrderStore(orderFile), logger)
	svc := usecase.NewTabService(client, identity.NewResolver(), reconciler,
		usecase.NewGeometryPlanner(client, 0, logger), staticFrontmost{name: "Code"}, logger)
	return svc, reconciler
}

func ids(windows []domain.WindowRecord) []string {
	return usecase.IDs(windows)
}

var _ = Describe("Tab engine over yabai", func() {
	var (
		tmpDir    string
		fake      *fixtures.FakeYabai
		orderFile string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "tabmon-integration-*")
		Expect(err).NotTo(HaveOccurred())

		fake, err = fixtures.NewFakeYabai(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		orderFile = filepath.Join(tmpDir, "config", "tab-order.json")

		Expect(fake.SetWindows(fixtures.Windows(
			fixtures.Window(101, 500, "Code", "main.go — tabmon", 25, 875),
			fixtures.Window(102, 600, "Google Chrome", "Inbox", 25, 875),
			fixtures.Window(103, 501, "Visual Studio Code", "README.md — focusd", 200, 600),
		))).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("discovery", func() {
		It("lists only editor windows in discovery order", func() {
			svc, reconciler := newService(fake.Path, orderFile)

			windows, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()

			Expect(ids(windows)).To(Equal([]string{
				identity.StableID("main.go — tabmon", 500),
				identity.StableID("README.md — focusd", 501),
			}))
		})

		It("reports an unavailable manager when the binary is missing", func() {
			svc, _ := newService(filepath.Join(tmpDir, "missing-yabai"), orderFile)

			_, err := svc.ListWindows(context.Background())
			Expect(err).To(MatchError(domain.ErrManagerUnavailable))
		})

		It("degrades to an empty list on malformed output", func() {
			Expect(fake.SetWindows("garbage")).To(Succeed())
			svc, _ := newService(fake.Path, orderFile)

			windows, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(windows).To(BeEmpty())
		})
	})

	Describe("tab order persistence", func() {
		It("saves the baseline and restores it in a new session", func() {
			svc, reconciler := newService(fake.Path, orderFile)
			first, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()

			Expect(infra.NewFileOrderStore(orderFile).Load()).To(Equal(ids(first)))

			Expect(svc.Reorder([]string{ids(first)[1], ids(first)[0]})).To(Succeed())

			next, nextReconciler := newService(fake.Path, orderFile)
			second, err := next.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			nextReconciler.Wait()

			Expect(ids(second)).To(Equal([]string{ids(first)[1], ids(first)[0]}))
		})

		It("drops closed windows and appends new ones", func() {
			svc, reconciler := newService(fake.Path, orderFile)
			_, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()

			Expect(fake.SetWindows(fixtures.Windows(
				fixtures.Window(103, 501, "Visual Studio Code", "README.md — focusd", 200, 600),
				fixtures.Window(104, 502, "Code", "Welcome", 25, 875),
			))).To(Succeed())

			windows, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()

			want := []string{identity.StableID("x — focusd", 501), identity.StableID("Welcome", 502)}
			Expect(ids(windows)).To(Equal(want))
			Expect(infra.NewFileOrderStore(orderFile).Load()).To(Equal(want))
		})
	})

	Describe("window control", func() {
		It("focuses by stable id and rejects unknown ids", func() {
			svc, reconciler := newService(fake.Path, orderFile)
			_, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()

			Expect(svc.Focus(context.Background(), identity.StableID("main.go — tabmon", 500))).To(Succeed())
			Expect(svc.Focus(context.Background(), "deadbeef")).To(MatchError(domain.ErrNotFound))
			Expect(fake.Commands()).To(Equal([]string{"-m window 101 --focus"}))
		})

		It("resizes windows below the reserved band", func() {
			svc, reconciler := newService(fake.Path, orderFile)
			_, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()

			results, err := svc.Resize(context.Background(), 40)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(fake.Commands()).To(ContainElements(
				"-m window 101 --move abs:0:40",
				"-m window 101 --resize abs:1440:860",
				"-m window 103 --move abs:0:200",
				"-m window 103 --resize abs:1440:700",
			))
		})

		It("falls back to grid placement and reports final failure", func() {
			svc, reconciler := newService(fake.Path, orderFile)
			_, err := svc.ListWindows(context.Background())
			Expect(err).NotTo(HaveOccurred())
			reconciler.Wait()
			Expect(fake.FailCommands(true)).To(Succeed())

			results, err := svc.Resize(context.Background(), 40)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.UsedFallback).To(BeTrue())
				Expect(r.Error).NotTo(BeEmpty())
			}
			Expect(fake.Commands()).To(ContainElement("-m window 101 --grid 22:1:0:1:1:21"))
		})
	})
})
