package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/tlanger/edgebackup/internal/backup"
	"github.com/tlanger/edgebackup/internal/config"
	"github.com/tlanger/edgebackup/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backup repository status",
	Long: `Display a read-only summary: repository location, last recorded backup,
total backup count, free disk space and the retention policy.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	repoPath := config.RepoPath()
	if repoPath == "" {
		return fmt.Errorf("github.repo_path is not configured")
	}

	fmt.Println("EdgeRouter Backup Status")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Repository:  %s\n", repoPath)

	store := backup.NewHistoryStore(repoPath, nil)
	repo := store.Repo()

	if repo.IsRepo() {
		if remote := config.Remote(); remote != "" {
			fmt.Printf("Git remote:  %s\n", remote)
		}
		if _, err := repo.HeadCommit(); err == nil {
			date, _ := repo.HeadDate()
			msg, _ := repo.HeadMessage()
			fmt.Printf("Last backup: %s\n", date)
			fmt.Printf("Last commit: %s\n", msg)
		} else {
			fmt.Println("Last backup: No commits yet")
		}
	} else {
		fmt.Println("Git status:  Not initialized")
	}

	// Count complete revisions by their archive artifact, like the web UI
	// restore path would.
	archives := 0
	if paths, err := store.WorkingTreeBackups(); err == nil {
		for _, p := range paths {
			if strings.HasSuffix(p, "."+models.ExtArchive) {
				archives++
			}
		}
	}
	fmt.Printf("Backups:     %d\n", archives)

	if free, err := availableBytes(repoPath); err == nil {
		fmt.Printf("Disk space:  %.2f GB available\n", float64(free)/(1024*1024*1024))
	}

	fmt.Printf("Retention:   %d days\n", config.RetentionDays())
	return nil
}

// availableBytes returns the free space on the filesystem holding path.
func availableBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
