package services

import (
	stdcontext "context"
	"fmt"
	"net/http"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// MediaService mirrors provider poster images into object storage so the
// catalog keeps working when an upstream CDN link goes stale. Mirroring is
// best effort and always runs off the request path.
type MediaService struct {
	context.DefaultService

	httpc *http.Client
	jobs  chan mirrorJob

	minioSvc *MinIOService
}

type mirrorJob struct {
	filmID string
	url    string
}

const MEDIA_SVC = "media_svc"

const mirrorQueueSize = 256

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *context.Context) error {
	svc.httpc = &http.Client{Timeout: 30 * time.Second}
	svc.jobs = make(chan mirrorJob, mirrorQueueSize)
	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)

	go svc.mirrorWorker()
	return nil
}

func (svc *MediaService) Shutdown() {
	close(svc.jobs)
}

// MirrorPoster queues a poster download. A full queue drops the job; the
// poster URL still works directly.
func (svc *MediaService) MirrorPoster(filmID, url string) {
	select {
	case svc.jobs <- mirrorJob{filmID: filmID, url: url}:
	default:
		log.WithField("film_id", filmID).Debug("Mirror queue full, skipping poster")
	}
}

// PosterURL returns a presigned link to the mirrored poster when one exists.
func (svc *MediaService) PosterURL(ctx stdcontext.Context, filmID string) (string, error) {
	if svc.minioSvc == nil || svc.minioSvc.client == nil {
		return "", fmt.Errorf("object storage not connected")
	}
	object := posterObjectName(filmID)
	if !svc.minioSvc.ObjectExists(ctx, object) {
		return "", fmt.Errorf("no mirrored poster for film %s", filmID)
	}
	return svc.minioSvc.PresignedURL(ctx, object, time.Hour)
}

func (svc *MediaService) mirrorWorker() {
	for job := range svc.jobs {
		if err := svc.mirror(job); err != nil {
			log.WithError(err).WithField("film_id", job.filmID).Warn("Poster mirror failed")
		}
	}
}

func (svc *MediaService) mirror(job mirrorJob) error {
	ctx, cancel := stdcontext.WithTimeout(stdcontext.Background(), time.Minute)
	defer cancel()

	object := posterObjectName(job.filmID)
	if svc.minioSvc.ObjectExists(ctx, object) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.url, nil)
	if err != nil {
		return err
	}
	resp, err := svc.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("poster download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return svc.minioSvc.UploadObject(ctx, object, resp.Body, resp.ContentLength, contentType)
}

func posterObjectName(filmID string) string {
	return "posters/" + filmID + ".jpg"
}
