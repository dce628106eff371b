//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/config"
	"github.com/eliteGoblin/focusd/tab_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/identity"
	"github.com/eliteGoblin/focusd/tab_mon/internal/ipc"
	"github.com/eliteGoblin/focusd/tab_mon/test/fixtures"
)

var _ = Describe("Daemon", func() {
	var (
		tmpDir       string
		fake         *fixtures.FakeYabai
		cfg          *config.Config
		registryPath string
		cancel       context.CancelFunc
		done         chan error
		client       *ipc.Client
	)

	BeforeEach(func() {
		var err error
		// Short path: unix socket paths are limited to ~104 bytes on macOS
		tmpDir, err = os.MkdirTemp("", "tmd")
		Expect(err).NotTo(HaveOccurred())

		fake, err = fixtures.NewFakeYabai(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(fake.SetWindows(fixtures.Windows(
			fixtures.Window(101, 500, "Code", "main.go — tabmon", 25, 875),
		))).To(Succeed())

		cfg = config.Default()
		cfg.Manager.Binary = fake.Path
		cfg.Manager.SearchPaths = nil
		cfg.Discovery.Interval = 100 * time.Millisecond
		cfg.OrderFile = filepath.Join(tmpDir, "order.json")
		cfg.SocketPath = filepath.Join(tmpDir, "d.sock")
		registryPath = filepath.Join(tmpDir, "instance.json")

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			done <- daemon.Run(ctx, daemon.Options{
				Config:       cfg,
				Version:      "test",
				RegistryPath: registryPath,
				Frontmost:    staticFrontmost{name: "Visual Studio Code"},
				Logger:       zap.NewNop(),
			})
		}()

		Expect(daemon.WaitForSocket(cfg.SocketPath, 5*time.Second)).To(Succeed())
		client = ipc.NewClient(cfg.SocketPath)
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
		os.RemoveAll(tmpDir)
	})

	It("serves the consumer contract over the socket", func() {
		id := identity.StableID("main.go — tabmon", 500)

		windows, err := client.ListWindows()
		Expect(err).NotTo(HaveOccurred())
		Expect(windows).To(HaveLen(1))
		Expect(windows[0].ID).To(Equal(id))

		Expect(client.Focus(id)).To(Succeed())
		Expect(fake.Commands()).To(ContainElement("-m window 101 --focus"))
		Expect(client.Focus("deadbeef")).To(MatchError(domain.ErrNotFound))

		Eventually(func() bool {
			visible, _ := client.ShouldShow()
			return visible
		}, 2*time.Second).Should(BeTrue())

		Expect(client.Reorder([]string{id})).To(Succeed())
		Expect(client.GetOrder()).To(Equal([]string{id}))

		status, err := client.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.PID).To(Equal(os.Getpid()))
		Expect(status.ManagerAvailable).To(BeTrue())
	})

	It("streams windows-updated events", func() {
		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		events := make(chan ipc.Event, 8)
		go func() {
			defer GinkgoRecover()
			_ = client.Subscribe(ctx, func(ev ipc.Event) {
				select {
				case events <- ev:
				default:
				}
			})
		}()

		Expect(fake.SetWindows(fixtures.Windows(
			fixtures.Window(101, 500, "Code", "main.go — tabmon", 25, 875),
			fixtures.Window(102, 501, "Code", "Welcome", 25, 875),
		))).To(Succeed())

		Eventually(func() int {
			select {
			case ev := <-events:
				return len(ev.Windows)
			default:
				return 0
			}
		}, 3*time.Second, 20*time.Millisecond).Should(Equal(2))
	})

	It("refuses a second instance while the first is alive", func() {
		err := daemon.Run(context.Background(), daemon.Options{
			Config:       cfg,
			RegistryPath: registryPath,
			Frontmost:    staticFrontmost{name: "Code"},
		})
		// Same pid re-registers, so the live socket is what refuses it.
		Expect(err).To(MatchError(domain.ErrAlreadyRunning))
	})
})
