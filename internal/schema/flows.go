package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

// Callback payloads shared with the transport's inline keyboards.
const (
	CallbackRegister = "register"
	CallbackConfirm  = "confirm"
)

// ConfirmButtonText is the label of the inline confirmation button.
const ConfirmButtonText = "Tasdiqlash"

// RegisterButtonText is the label of the inline registration button shown
// under the welcome message.
const RegisterButtonText = "📝 Ro'yxatdan o'tish"

const dateHint = "⚠️ Sana formati noto'g'ri. Namuna: 21.08.1995 yoki 1995-08-21"

const pharmacistWelcome = "🤩 HURMATLI FARMATSEVT! SIZNI QADRLAYDIGAN JAMOAGA QO'SHILISHNI XOHLAYSIZMI?\n\n" +
	"✨ Ish mazmuni: \n\n" +
	"— Mijozlar bilan muloqot qilish\n" +
	"— Dori-darmonlarni sotish\n" +
	"— Kompyuterdan foydalanish tajribasi\n" +
	"— Dori-darmonlar haqida ma'lumot berish\n\n" +
	"✅ Biz sizni tanlaymiz, agar:\n\n" +
	"— 18-35 yosh oralig'ida bo'lsangiz\n" +
	"— Jamoada ishlashni bilsangiz\n" +
	"— E'tiborli va muzokara qila olsangiz\n" +
	"— Stressga chidamli bo'lsangiz\n" +
	"— Xushmuomala va ozoda boʻlsangiz\n\n" +
	"🥰 Sizni kutadigan imkoniyatlar:\n\n" +
	"— Do'stona jamoa\n" +
	"— Oylik + bonuslar\n" +
	"— Rasman ishga qabul qilish\n" +
	"— Bepul o'qish va tajriba\n" +
	"— Karyera va rivojlanish imkoniyati\n" +
	"— Haftasiga bir kun dam olish\n" +
	"— Yiliga 2 marta sayohatlar\n\n" +
	"⬇️ Pastdagi tugmani bosib, roʻyxatdan oʻtishni boshlang!\n\n" +
	"❕Iltimos ro'yxatdan o'tishda barcha ma'lumotlaringizni aniqlik bilan kiriting."

const salesWelcome = "🛍️ SAVDO MASLAHATCHISI LAVOZIMIGA QABUL!\n\n" +
	"⬇️ Pastdagi tugmani bosib, roʻyxatdan oʻtishni boshlang!"

const courierWelcome = "🚚 KURYER LAVOZIMIGA QABUL!\n\n" +
	"⬇️ Pastdagi tugmani bosib, roʻyxatdan oʻtishni boshlang!"

// staticPrompt builds a PromptFunc that ignores accumulated answers.
func staticPrompt(text string, kb *models.Keyboard) PromptFunc {
	return func(_ map[models.StepID]string) models.Prompt {
		return models.Prompt{Text: text, Keyboard: kb}
	}
}

func yesNoKeyboard() *models.Keyboard {
	return &models.Keyboard{
		OneTime: true,
		Rows: [][]models.Button{
			{{Text: AnswerYes}, {Text: AnswerNo}},
		},
	}
}

func skillKeyboard() *models.Keyboard {
	return &models.Keyboard{
		OneTime:     true,
		Placeholder: "1 - 4 dan birini tanlang",
		Rows: [][]models.Button{
			{{Text: "1️⃣"}, {Text: "2️⃣"}, {Text: "3️⃣"}, {Text: "4️⃣"}},
		},
	}
}

func confirmKeyboard() *models.Keyboard {
	return &models.Keyboard{
		Inline: true,
		Rows: [][]models.Button{
			{{Text: ConfirmButtonText, Data: CallbackConfirm}},
		},
	}
}

// confirmStep renders the summary of every recorded answer, in declaration
// order, with the inline confirmation button. It is transient: confirming
// stores no column.
func confirmStep(questions []StepDefinition) StepDefinition {
	prompt := func(answers map[models.StepID]string) models.Prompt {
		var b strings.Builder
		b.WriteString("Ma'lumotlar to'g'riligini tasdiqlang.\n")
		for _, q := range questions {
			if q.Transient {
				continue
			}
			b.WriteString("\n")
			b.WriteString(q.Label)
			b.WriteString(": ")
			b.WriteString(answers[q.ID])
		}
		return models.Prompt{Text: b.String(), Keyboard: confirmKeyboard()}
	}
	return StepDefinition{
		ID:        "confirm",
		Label:     "Tasdiqlash",
		Prompt:    prompt,
		Accept:    Confirm(CallbackConfirm, ConfirmButtonText),
		Next:      Finalize,
		Transient: true,
	}
}

// withConfirmation chains the question steps in declaration order and
// appends the confirmation step as the terminal transition.
func withConfirmation(questions []StepDefinition) []StepDefinition {
	steps := make([]StepDefinition, len(questions))
	copy(steps, questions)
	confirm := confirmStep(questions)
	for i := range steps {
		if i+1 < len(steps) {
			steps[i].Next = steps[i+1].ID
		} else {
			steps[i].Next = confirm.ID
		}
	}
	return append(steps, confirm)
}

func pharmacistQuestions() []StepDefinition {
	return []StepDefinition{
		{
			ID: "full_name", Label: "👤 Ism",
			Prompt: staticPrompt("👤 Ism-sharifingizni yozing:", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "birthdate", Label: "🗓️ Tug'ilgan sana",
			Prompt: staticPrompt("🗓️ Tugʻilgan kun/oy/yilni yozing:\n\n➡️ Namuna: 21.08.1995", nil),
			Accept: Date(dateHint),
		},
		{
			ID: "address", Label: "📍 Manzil",
			Prompt: staticPrompt("📍 Yashash manzilingizni batafsil yozing.", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "desired_region", Label: "🏥 Xohlagan hudud",
			Prompt: staticPrompt("🏥 Ishlashni xohlagan hududingizni yozing:", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "education_level", Label: "🎓 Ma'lumoti",
			Prompt: staticPrompt("🎓 Maʼlumotingizni yozing!\n— Oliy yoki oʻrta maxsus:", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "total_experience_duration", Label: "⏳ Umumiy tajriba",
			Prompt: staticPrompt("⏳ Sohadagi umumiy tajribangiz muddati qancha?", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "prev_job_duration_and_place", Label: "💼 Oldingi ish va muddat",
			Prompt: staticPrompt("💼 Oldingi ish joyingizda qancha muddat ishlagansiz va u qayer edi?", nil),
			Accept: MinLengthText(5),
		},
		{
			ID: "marital_status", Label: "💍 Oilaviy",
			Prompt: staticPrompt("💍 Oilaviy holatingiz qanday?\n\n— Turmush qurganmisiz?\n— Farzandingiz bormi, soni nechta?", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "salary_expectation", Label: "💸 Xohlagan maosh",
			Prompt: staticPrompt("💸 Qancha maoshga ishlashni xohlaysiz?", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "computer_skill", Label: "💻 Komp. daraja",
			Prompt: staticPrompt("💻 Kompyuterdan foydalanish darajangiz qanday?\n\n1️⃣ Bilmayman\n2️⃣ Boshlangʻich bilaman\n3️⃣ O'rtacha daraja\n4️⃣ Juda ham yaxshi", skillKeyboard()),
			Accept: DigitChoice(1, 4),
		},
		{
			ID: "phone", Label: "☎️ Telefon",
			Prompt: staticPrompt("☎️ Telefon raqamingizni yuboring!\n\n➡️ Namuna: 998 33 210 03 03", models.RemoveKeyboard()),
			Accept: PhoneOrContact(),
		},
	}
}

func photoQuestion() StepDefinition {
	return StepDefinition{
		ID: "photo", Label: "🖼️ Rasm",
		Prompt: staticPrompt("🖼️ Rasmingizni yuboring.\n\n— Rasm yo'q bo'lsa, istalgan xabar yuboring.", nil),
		Accept: OptionalPhoto(),
		Media:  true,
	}
}

func salesQuestions() []StepDefinition {
	return []StepDefinition{
		{
			ID: "full_name", Label: "👤 Ism",
			Prompt: staticPrompt("👤 Ism-sharifingizni yozing:", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "birthdate", Label: "🗓️ Tug'ilgan sana",
			Prompt: staticPrompt("🗓️ Tugʻilgan kun/oy/yilni yozing:\n\n➡️ Namuna: 21.08.1995", nil),
			Accept: Date(dateHint),
		},
		{
			ID: "address", Label: "📍 Manzil",
			Prompt: staticPrompt("📍 Yashash manzilingizni batafsil yozing.", nil),
			Accept: MinLengthText(10),
		},
		{
			ID: "has_experience", Label: "🛍️ Savdo tajribasi",
			Prompt: staticPrompt("🛍️ Savdo sohasida tajribangiz bormi?", yesNoKeyboard()),
			Accept: YesNo(),
		},
		{
			ID: "prev_job", Label: "💼 Oldingi ish",
			Prompt: staticPrompt("💼 Oldingi ish joyingiz qayer edi?", models.RemoveKeyboard()),
			Accept: NonEmptyText(),
		},
		{
			ID: "salary_expectation", Label: "💸 Xohlagan maosh",
			Prompt: staticPrompt("💸 Qancha maoshga ishlashni xohlaysiz?", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "phone", Label: "☎️ Telefon",
			Prompt: staticPrompt("☎️ Telefon raqamingizni yuboring!\n\n➡️ Namuna: 998 33 210 03 03", nil),
			Accept: PhoneOrContact(),
		},
	}
}

func courierQuestions() []StepDefinition {
	return []StepDefinition{
		{
			ID: "full_name", Label: "👤 Ism",
			Prompt: staticPrompt("👤 Ism-sharifingizni yozing:", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "birthdate", Label: "🗓️ Tug'ilgan sana",
			Prompt: staticPrompt("🗓️ Tugʻilgan kun/oy/yilni yozing:\n\n➡️ Namuna: 21.08.1995", nil),
			Accept: Date(dateHint),
		},
		{
			ID: "address", Label: "📍 Manzil",
			Prompt: staticPrompt("📍 Yashash manzilingizni batafsil yozing.", nil),
			Accept: NonEmptyText(),
		},
		{
			ID: "has_license", Label: "🚗 Haydovchilik guvohnomasi",
			Prompt: staticPrompt("🚗 Haydovchilik guvohnomangiz bormi?", yesNoKeyboard()),
			Accept: YesNo(),
		},
		{
			ID: "salary_expectation", Label: "💸 Xohlagan maosh",
			Prompt: staticPrompt("💸 Qancha maoshga ishlashni xohlaysiz?", models.RemoveKeyboard()),
			Accept: NonEmptyText(),
		},
		{
			ID: "phone", Label: "☎️ Telefon",
			Prompt: staticPrompt("☎️ Telefon raqamingizni yuboring!\n\n➡️ Namuna: 998 33 210 03 03", nil),
			Accept: PhoneOrContact(),
		},
	}
}

// Pharmacist is the default 11-question flow of the original deployment.
func Pharmacist() *Flow {
	return NewFlow("pharmacist", pharmacistWelcome, withConfirmation(pharmacistQuestions()))
}

// PharmacistPhoto is the pharmacist flow with a trailing photo step.
func PharmacistPhoto() *Flow {
	questions := append(pharmacistQuestions(), photoQuestion())
	return NewFlow("pharmacist-photo", pharmacistWelcome, withConfirmation(questions))
}

// Sales is the shorter sales-consultant variant.
func Sales() *Flow {
	return NewFlow("sales", salesWelcome, withConfirmation(salesQuestions()))
}

// Courier is the courier variant.
func Courier() *Flow {
	return NewFlow("courier", courierWelcome, withConfirmation(courierQuestions()))
}

// FlowByName resolves a configured flow variant.
func FlowByName(name string) (*Flow, error) {
	switch name {
	case "", "pharmacist":
		return Pharmacist(), nil
	case "pharmacist-photo":
		return PharmacistPhoto(), nil
	case "sales":
		return Sales(), nil
	case "courier":
		return Courier(), nil
	}
	return nil, fmt.Errorf("unknown form flow %q (known: %s)", name, strings.Join(FlowNames(), ", "))
}

// FlowNames lists the known flow variants.
func FlowNames() []string {
	names := []string{"pharmacist", "pharmacist-photo", "sales", "courier"}
	sort.Strings(names)
	return names
}
