package modelsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"dropout-risk-service/internal/config"
	"dropout-risk-service/internal/core/domain"
)

const defaultNamespace = "default"

// ConfigMap reads the model artifact from a key of a Kubernetes ConfigMap.
// Binary artifacts are expected under binaryData, text ones under data.
type ConfigMap struct {
	client    kubernetes.Interface
	namespace string
	name      string
	key       string
}

// NewConfigMap builds a clientset from in-cluster config, an explicit
// kubeconfig, or ~/.kube/config, in that order.
func NewConfigMap(cfg *config.KubernetesConfig) (*ConfigMap, error) {
	var restCfg *rest.Config
	var err error

	if cfg.InCluster {
		restCfg, err = rest.InClusterConfig()
	} else if cfg.KubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	} else {
		home, _ := os.UserHomeDir()
		kubeconfig := filepath.Join(home, ".kube", "config")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create k8s client: %w", err)
	}

	return NewConfigMapWithClient(client, cfg.Namespace, cfg.ModelConfigMap, cfg.ModelKey), nil
}

func NewConfigMapWithClient(client kubernetes.Interface, namespace, name, key string) *ConfigMap {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &ConfigMap{client: client, namespace: namespace, name: name, key: key}
}

func (c *ConfigMap) Fetch(ctx context.Context) ([]byte, error) {
	cm, err := c.client.CoreV1().ConfigMaps(c.namespace).Get(ctx, c.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("%w: configmap %s not found", domain.ErrModelSourceUnavailable, c.Describe())
	}
	if err != nil {
		return nil, fmt.Errorf("get configmap: %w", err)
	}

	if data, ok := cm.BinaryData[c.key]; ok {
		return data, nil
	}
	if data, ok := cm.Data[c.key]; ok {
		return []byte(data), nil
	}
	return nil, fmt.Errorf("%w: key %q missing from %s", domain.ErrModelSourceUnavailable, c.key, c.Describe())
}

func (c *ConfigMap) Describe() string {
	return fmt.Sprintf("configmap:%s/%s#%s", c.namespace, c.name, c.key)
}
