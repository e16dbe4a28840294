package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type defaultTemplate struct {
	name string
	kind noticedomain.Kind
	body string
}

var defaultTemplates = []defaultTemplate{
	{
		name: "Lembrete Amigável",
		kind: noticedomain.KindFriendlyReminder,
		body: "Prezado franqueado {{nome}},\n\nIdentificamos débitos em aberto da unidade {{cnpj}} no valor de R$ {{valor}}.\nCaso o pagamento já tenha sido efetuado, desconsidere este aviso.\n\nAtenciosamente,\nEquipe de Cobrança",
	},
	{
		name: "Cobrança Formal",
		kind: noticedomain.KindFormalCollection,
		body: "Prezado franqueado {{nome}},\n\nA unidade {{cnpj}} possui débitos vencidos há {{dias}} dias, totalizando R$ {{valor}}.\nSolicitamos a regularização em até 5 dias úteis ou o contato com nossa equipe para negociação.\n\nAtenciosamente,\nEquipe de Cobrança",
	},
	{
		name: "Advertência",
		kind: noticedomain.KindWarning,
		body: "Prezado franqueado {{nome}},\n\nApesar das tentativas anteriores de contato, os débitos da unidade {{cnpj}} permanecem em aberto ({{dias}} dias de atraso, R$ {{valor}}).\nO não pagamento poderá resultar em bloqueio de acesso aos sistemas da rede.\n\nAtenciosamente,\nEquipe de Cobrança",
	},
	{
		name: "Notificação Extrajudicial",
		kind: noticedomain.KindExtrajudicial,
		body: "NOTIFICAÇÃO EXTRAJUDICIAL\n\nNotificamos {{nome}}, inscrita no CNPJ {{cnpj}}, acerca do débito vencido de R$ {{valor}}, em atraso há {{dias}} dias.\nFica concedido o prazo improrrogável de 10 dias para quitação ou formalização de acordo, sob pena das medidas judiciais cabíveis.\n\n{{cidade}}, {{data}}",
	},
	{
		name: "Acionamento Jurídico",
		kind: noticedomain.KindLegalAction,
		body: "Encaminhamento ao departamento jurídico.\n\nUnidade: {{nome}} ({{cnpj}})\nDébito total: R$ {{valor}}\nDias em atraso: {{dias}}\nAcordos quebrados: {{acordos_quebrados}}\n\nHistórico de tratativas em anexo.",
	},
}

// EnsureDefaultTemplates seeds one notice template per collection kind
// so a fresh install can render notices immediately. Existing slugs are
// left untouched.
func EnsureDefaultTemplates(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tpl := range defaultTemplates {
			templateSlug := slug.Make(tpl.name)

			var existing noticedomain.Template
			err := tx.Where("slug = ?", templateSlug).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			record := noticedomain.Template{
				ID:        node.Generate(),
				Name:      tpl.name,
				Slug:      templateSlug,
				Kind:      tpl.kind,
				Body:      tpl.body,
				Variables: datatypes.NewJSONSlice(noticedomain.ExtractVariables(tpl.body)),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
